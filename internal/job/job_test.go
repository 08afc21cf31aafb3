package job

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

type fakeAdLogs struct {
	service.AdLogService
	purged    []time.Duration
	purgeRows int64
	err       error
}

func (f *fakeAdLogs) Purge(_ context.Context, retention time.Duration) (int64, error) {
	f.purged = append(f.purged, retention)
	return f.purgeRows, f.err
}

type fakeUsers struct {
	service.PremiumUserService
	lapsed []*repository.PremiumUser
}

func (f *fakeUsers) Lapsed(context.Context) ([]*repository.PremiumUser, error) {
	return f.lapsed, nil
}

type countingJob struct {
	runs int
	err  error
}

func (c *countingJob) Name() string { return "counting" }

func (c *countingJob) Run(context.Context) error {
	c.runs++
	return c.err
}

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestAdLogRetentionPurgesWithConfiguredWindow(t *testing.T) {
	logs := &fakeAdLogs{purgeRows: 3}
	logger, buf := bufferLogger()
	job := NewAdLogRetentionJob(logs, 72*time.Hour, logger)

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []time.Duration{72 * time.Hour}, logs.purged)
	assert.Contains(t, buf.String(), "deleted_rows=3")
}

func TestAdLogRetentionDisabledByZeroWindow(t *testing.T) {
	logs := &fakeAdLogs{}
	require.NoError(t, NewAdLogRetentionJob(logs, 0, nil).Run(context.Background()))
	assert.Empty(t, logs.purged)
}

func TestAdLogRetentionWrapsErrors(t *testing.T) {
	logs := &fakeAdLogs{err: errors.New("disk full")}
	err := NewAdLogRetentionJob(logs, time.Hour, nil).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	var nilJob *AdLogRetentionJob
	assert.Error(t, nilJob.Run(context.Background()))
}

func TestPremiumExpiryReportLogsEachLapsedUser(t *testing.T) {
	users := &fakeUsers{lapsed: []*repository.PremiumUser{
		{ID: "u1", Email: "a@example.com", DeviceID: "dev-a", DateEnd: 1700000000},
		{ID: "u2", Email: "b@example.com", DeviceID: "dev-b", DateEnd: 1700000100},
	}}
	logger, buf := bufferLogger()

	require.NoError(t, NewPremiumExpiryReportJob(users, logger).Run(context.Background()))
	out := buf.String()
	assert.Contains(t, out, "a@example.com")
	assert.Contains(t, out, "b@example.com")
	assert.Contains(t, out, "lapsed=2")
}

func TestPremiumExpiryReportQuietWhenNothingLapsed(t *testing.T) {
	logger, buf := bufferLogger()
	require.NoError(t, NewPremiumExpiryReportJob(&fakeUsers{}, logger).Run(context.Background()))
	assert.Empty(t, buf.String())
}

func TestSchedulerRegister(t *testing.T) {
	s := NewScheduler(nil)

	_, err := s.Register("@every 1h", &countingJob{})
	require.NoError(t, err)
	_, err = s.Register("-", &countingJob{})
	require.NoError(t, err)
	_, err = s.Register("not a cron spec", &countingJob{})
	assert.Error(t, err)
	_, err = s.Register("@daily", nil)
	assert.Error(t, err)

	assert.Equal(t, 1, s.Entries())
}

func TestSchedulerRunNowLogsFailures(t *testing.T) {
	logger, buf := bufferLogger()
	s := NewScheduler(logger)
	job := &countingJob{err: errors.New("boom")}

	s.RunNow(job)
	assert.Equal(t, 1, job.runs)
	assert.Contains(t, buf.String(), "job failed")
}

type panickyJob struct{}

func (panickyJob) Name() string { return "panicky" }

func (panickyJob) Run(context.Context) error { panic("boom") }

func TestCronChainRecoversPanics(t *testing.T) {
	logger, buf := bufferLogger()
	s := NewScheduler(logger)
	id, err := s.Register("@every 1h", panickyJob{})
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.cron.Entry(id).WrappedJob.Run() })
	assert.Contains(t, buf.String(), "cron: panic")
}

func TestSchedulerStartStopIdempotent(t *testing.T) {
	s := NewScheduler(nil)
	s.Start()
	s.Start()
	<-s.Stop().Done()
	assert.NotNil(t, s.Stop())
}
