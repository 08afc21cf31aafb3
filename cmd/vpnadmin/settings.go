package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/vpnadmin/internal/repository"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

func init() {
	var settingsCmd = &cobra.Command{
		Use:   "settings",
		Short: "Mobile app settings",
	}

	var asForm bool
	var getCmd = &cobra.Command{
		Use:   "get",
		Short: "Show the current app settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			if asForm {
				form, err := c.AppSettingsForm(cmd.Context())
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), form)
			}
			s, err := c.AppSettings(cmd.Context())
			if err != nil {
				return err
			}
			return renderSettings(s)
		},
	}
	getCmd.Flags().BoolVar(&asForm, "form", false, "print the edit form for settings apply -f")
	settingsCmd.AddCommand(getCmd)

	var file string
	var applyCmd = &cobra.Command{
		Use:   "apply -f <file.yaml>",
		Short: "Update the listed settings, keeping the rest",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(file)
			if err != nil {
				return err
			}
			patch, _, err := decodePatch[service.AppSettingsForm](raw)
			if err != nil {
				return err
			}
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			m, err := c.UpdateAppSettings(cmd.Context(), patch)
			if err != nil {
				return explain(err)
			}
			printMessage(m.Message)
			return nil
		},
	}
	applyCmd.Flags().StringVarP(&file, "file", "f", "", "YAML form file, - for stdin")
	_ = applyCmd.MarkFlagRequired("file")
	settingsCmd.AddCommand(applyCmd)

	settingsCmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the default app settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			m, err := c.ResetAppSettings(cmd.Context())
			if err != nil {
				return err
			}
			printMessage(m.Message)
			return renderSettings(m.Entity)
		},
	})

	var limit int
	var versionsCmd = &cobra.Command{
		Use:   "versions",
		Short: "Show the app version history, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			items, err := c.AppVersions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(items))
			for _, v := range items {
				rows = append(rows, []string{
					fmt.Sprintf("%g", v.VersionNow), itoa(v.BuildNow),
					time.Unix(v.CreatedAt, 0).Local().Format(time.DateTime),
				})
			}
			return render(items, []string{"VERSION", "BUILD", "RECORDED"}, rows)
		},
	}
	versionsCmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	settingsCmd.AddCommand(versionsCmd)

	rootCmd.AddCommand(settingsCmd)
}

func renderSettings(s repository.AppSettings) error {
	return renderFields(s, [][2]string{
		{"Version", fmt.Sprintf("%g (build %d)", s.VersionNow, s.BuildNow)},
		{"Ads mediation", yesNo(s.AdsMediation)},
		{"Maintenance", yesNo(s.MaintenanceMode)},
		{"Device locked", yesNo(s.DeviceLocked)},
		{"Default", yesNo(s.Default)},
		{"Ad reward", fmt.Sprintf("%dh per ad, max %dh", s.TimeStepHour, s.TimeMaxHour)},
		{"Colours", s.AppBg + " / " + s.CurveBg},
		{"Servers updated", s.ServersUpdated},
		{"Configs updated", s.ConfigsUpdated},
		{"Agent model", s.AgentModel},
	})
}
