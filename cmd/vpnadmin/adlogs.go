package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/vpnadmin/internal/client"
	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

func init() {
	var adlogsCmd = &cobra.Command{
		Use:   "adlogs",
		Short: "Ad callback history and live feed",
	}

	// tail
	adlogsCmd.AddCommand(&cobra.Command{
		Use:   "tail",
		Short: "Follow ad callbacks as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(os.Stderr, "Following %s (ctrl+c to stop)\n", c.FeedURL())
			return c.Tail(ctx, printEvent, client.TailOptions{
				OnReconnect: func(err error, wait time.Duration) {
					logger.Warn("ad feed disconnected", "error", err, "retry_in", wait)
				},
			})
		},
	})

	// stats
	adlogsCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show ad callback totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			stats, err := c.AdLogStats(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"total", itoa(stats.TotalCallbacks)},
				{"unique users", itoa(stats.UniqueUsers)},
				{"last 24h", itoa(stats.Last24h)},
			}
			rows = append(rows, countRows("status", stats.ByStatus)...)
			rows = append(rows, countRows("ad type", stats.ByAdType)...)
			return render(stats, []string{"METRIC", "VALUE"}, rows)
		},
	})

	// callbacks
	var filter client.CallbackFilter
	var since time.Duration
	var callbacksCmd = &cobra.Command{
		Use:   "callbacks",
		Short: "List stored ad callbacks, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			if since > 0 {
				filter.From = time.Now().Add(-since)
			}
			items, err := c.Callbacks(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(items))
			for _, cb := range items {
				rows = append(rows, []string{itoa(cb.ID), formatMillis(cb.Timestamp), cb.UserID, cb.AdType, cb.Status})
			}
			return render(items, []string{"ID", "TIME", "USER", "AD TYPE", "STATUS"}, rows)
		},
	}
	callbacksCmd.Flags().StringVar(&filter.UserID, "user", "", "only this user id")
	callbacksCmd.Flags().StringVar(&filter.AdType, "type", "", "only this ad type")
	callbacksCmd.Flags().StringVar(&filter.Status, "status", "", "only this status")
	callbacksCmd.Flags().DurationVar(&since, "since", 0, "only callbacks newer than this, e.g. 24h")
	callbacksCmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum rows (server default when 0)")
	adlogsCmd.AddCommand(callbacksCmd)

	// status
	adlogsCmd.AddCommand(&cobra.Command{
		Use:   "status [user-id]",
		Short: "Show the ad-earned validity of one or all users",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			var items []repository.UserAdStatus
			if len(args) == 1 {
				st, err := c.UserStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				items = append(items, st)
			} else if items, err = c.UserStatuses(cmd.Context()); err != nil {
				return err
			}
			rows := make([][]string, 0, len(items))
			for _, st := range items {
				rows = append(rows, []string{st.UserID, formatMillis(st.ValidUntil), itoa(st.AdViews), formatMillis(st.LastSeen)})
			}
			return render(items, []string{"USER", "VALID UNTIL", "AD VIEWS", "LAST SEEN"}, rows)
		},
	})

	rootCmd.AddCommand(adlogsCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show server health: version, database, host load",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			st, err := c.SystemStatus(cmd.Context())
			if err != nil {
				return err
			}
			return renderFields(st, [][2]string{
				{"Version", st.Version},
				{"Database", st.DBDriver},
				{"Started", st.StartedAt.Format(time.RFC3339)},
				{"Goroutines", itoa(st.Goroutines)},
				{"Feed subscribers", itoa(st.Subscribers)},
				{"CPU", fmt.Sprintf("%.1f%%", st.CPU)},
				{"Memory", usage(st.Mem)},
				{"Disk", usage(st.Disk)},
				{"Load", fmt.Sprintf("%.2f %.2f %.2f", st.Load1, st.Load5, st.Load15)},
			})
		},
	})
}

func printEvent(e service.AdEvent) {
	if output == "json" {
		_ = render(e, nil, nil)
		return
	}
	fmt.Printf("%s  %-24s %-12s %s\n", formatMillis(e.Timestamp), e.UserID, e.AdType, e.Status)
}

func countRows(prefix string, counts map[string]int64) [][]string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{prefix + " " + k, itoa(counts[k])})
	}
	return rows
}

func formatMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}

func usage(u service.UsageStat) string {
	if u.Total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%% of %.1f GiB", float64(u.Used)*100/float64(u.Total), float64(u.Total)/(1<<30))
}
