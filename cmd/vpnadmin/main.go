package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/vpnadmin/internal/config"
	"github.com/creamcroissant/vpnadmin/internal/support/logging"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	cfgFile   string
	serverURL string
	language  string
	output    string

	appCfg *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "vpnadmin",
	Short:         "VPN fleet admin server and client",
	Long:          `vpnadmin serves the admin API for servers, configs, premium users and ad logs, and doubles as its command line client.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appCfg = cfg
		// 命令行输出走 stdout，日志统一写 stderr
		logger = logging.New(logging.Options{
			Level:       cfg.Log.SlogLevel(),
			Format:      cfg.Log.Format,
			AddSource:   cfg.Log.AddSource,
			Environment: cfg.Log.Environment,
			Output:      os.Stderr,
		})
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./config.yaml when present)")
	flags.StringVar(&serverURL, "server", "", "API server URL, overrides the session and client.server_url")
	flags.StringVar(&language, "lang", "", "preferred response language, e.g. zh-CN")
	flags.StringVarP(&output, "output", "o", "table", "output format: table, yaml or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
