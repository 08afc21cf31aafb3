// Package fixtures ships the demo data loaded by `vpnadmin seed` and used by tests.
package fixtures

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/vpnadmin/internal/repository"
)

//go:embed data.yaml
var data []byte

// Set 是一组完整的演示数据。
type Set struct {
	Servers      []repository.Server      `yaml:"servers"`
	Configs      []repository.Config      `yaml:"configs"`
	PremiumUsers []repository.PremiumUser `yaml:"premiumUsers"`
	AppSettings  *repository.AppSettings  `yaml:"appSettings"`
}

// Load decodes the embedded fixture file. Unknown keys are rejected.
func Load() (*Set, error) {
	return Decode(data)
}

// Decode parses a fixture document.
func Decode(raw []byte) (*Set, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	for i := range set.PremiumUsers {
		u := &set.PremiumUsers[i]
		u.Date = time.Unix(u.DateStart, 0).UTC().Format(time.RFC3339)
	}
	return &set, nil
}

// Result counts what Seed inserted and skipped.
type Result struct {
	Inserted int
	Skipped  int
}

// Seed 把演示数据写入 store。已存在的 id 会被跳过，因此可以重复执行。
// 应用设置只在尚未保存过时写入。
func Seed(ctx context.Context, store repository.Store, set *Set, now time.Time) (Result, error) {
	var res Result
	stamp := now.UTC().Unix()
	track := func(err error) error {
		switch {
		case err == nil:
			res.Inserted++
		case errors.Is(err, repository.ErrDuplicate):
			res.Skipped++
		default:
			return err
		}
		return nil
	}
	for i := range set.Servers {
		s := set.Servers[i]
		s.CreatedAt, s.UpdatedAt = stamp, stamp
		if err := track(store.Servers().Create(ctx, &s)); err != nil {
			return res, fmt.Errorf("seed server %s: %w", s.ID, err)
		}
	}
	for i := range set.Configs {
		c := set.Configs[i]
		c.CreatedAt, c.UpdatedAt = stamp, stamp
		if err := track(store.Configs().Create(ctx, &c)); err != nil {
			return res, fmt.Errorf("seed config %s: %w", c.ID, err)
		}
	}
	for i := range set.PremiumUsers {
		u := set.PremiumUsers[i]
		u.CreatedAt, u.UpdatedAt = stamp, stamp
		if err := track(store.PremiumUsers().Create(ctx, &u)); err != nil {
			return res, fmt.Errorf("seed premium user %s: %w", u.ID, err)
		}
	}
	if set.AppSettings == nil {
		return res, nil
	}
	_, err := store.AppSettings().Get(ctx)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		settings := *set.AppSettings
		settings.UpdatedAt = stamp
		if err := store.AppSettings().Save(ctx, &settings); err != nil {
			return res, fmt.Errorf("seed app settings: %w", err)
		}
		if err := store.AppSettings().AppendVersion(ctx, &repository.AppVersion{
			VersionNow: settings.VersionNow, BuildNow: settings.BuildNow, CreatedAt: stamp,
		}); err != nil {
			return res, fmt.Errorf("seed app version: %w", err)
		}
		res.Inserted++
	case err != nil:
		return res, fmt.Errorf("read app settings: %w", err)
	default:
		res.Skipped++
	}
	return res, nil
}
