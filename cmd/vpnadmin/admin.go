package main

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/vpnadmin/internal/bootstrap"
	"github.com/creamcroissant/vpnadmin/internal/fixtures"
	"github.com/creamcroissant/vpnadmin/internal/migrations"
	"github.com/creamcroissant/vpnadmin/internal/service"
)

func init() {
	// Migrate
	var migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Database migration management",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := bootstrap.OpenStore(appCfg.DB, false)
			if err != nil {
				return err
			}
			defer db.Close()

			action := "up"
			if len(args) > 0 {
				action = args[0]
			}
			driver := appCfg.DB.Driver
			switch action {
			case "up":
				return migrations.Up(db, driver)
			case "down":
				return migrations.Down(db, driver)
			case "status":
				return migrations.Status(db, driver)
			default:
				return fmt.Errorf("unknown migrate action %q", action)
			}
		},
	}
	rootCmd.AddCommand(migrateCmd)

	// Seed
	rootCmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Load the bundled demo servers, configs and premium users",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, store, err := bootstrap.OpenStore(appCfg.DB, true)
			if err != nil {
				return err
			}
			defer db.Close()

			set, err := fixtures.Load()
			if err != nil {
				return err
			}
			res, err := fixtures.Seed(cmd.Context(), store, set, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Seeded %d records (%d already present).\n", res.Inserted, res.Skipped)
			return nil
		},
	})

	// Token
	var tokenTTL time.Duration
	var tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Operator token management",
	}
	var tokenIssueCmd = &cobra.Command{
		Use:   "issue <operator>",
		Short: "Mint an operator token signed with the server key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issued, err := issueToken(cmd.Context(), args[0], tokenTTL)
			if err != nil {
				return err
			}
			fmt.Println(issued.Token)
			fmt.Fprintf(os.Stderr, "Token for %s expires %s.\n", issued.Claims.Subject, issued.Claims.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	tokenIssueCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)

	// Backup
	var backupOutput string
	var backupCompress bool
	var backupCmd = &cobra.Command{
		Use:   "backup",
		Short: "Backup the SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			if appCfg.DB.Driver == migrations.DriverPostgres {
				return fmt.Errorf("backup only supports sqlite; use pg_dump for postgres")
			}
			target := backupOutput
			if target == "" {
				backupDir := filepath.Join(filepath.Dir(appCfg.DB.Path), "backups")
				if err := os.MkdirAll(backupDir, 0o755); err != nil {
					return fmt.Errorf("create backup dir: %w", err)
				}
				ext := ".db"
				if backupCompress {
					ext += ".gz"
				}
				target = filepath.Join(backupDir, fmt.Sprintf("vpnadmin_%s%s", time.Now().Format("20060102_150405"), ext))
			}
			if err := backupSQLite(target, backupCompress); err != nil {
				return err
			}
			fmt.Printf("Backup created at %s\n", target)
			return nil
		},
	}
	backupCmd.Flags().StringVar(&backupOutput, "output-file", "", "Output file path")
	backupCmd.Flags().BoolVar(&backupCompress, "compress", false, "Compress output with gzip")
	rootCmd.AddCommand(backupCmd)

	// Version
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// 不需要读取配置
		PersistentPreRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vpnadmin %s\n", Version)
			fmt.Printf("Commit: %s\n", Commit)
			fmt.Printf("Build Time: %s\n", BuildTime)
		},
	})
}

// issueToken 直接用数据库里的签名密钥签发令牌，不经过 HTTP。
func issueToken(ctx context.Context, operator string, ttl time.Duration) (*service.IssuedToken, error) {
	db, store, err := bootstrap.OpenStore(appCfg.DB, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	key, _, err := bootstrap.ResolveJWTSigningKey(ctx, store.Settings(), appCfg.Auth.SigningKey, time.Now)
	if err != nil {
		return nil, err
	}
	infra, err := bootstrap.BuildInfrastructure(appCfg, key, logger)
	if err != nil {
		return nil, err
	}
	return service.NewSessionService(infra.Token, nil, infra.Audit).Issue(ctx, operator, ttl)
}

func backupSQLite(target string, compress bool) error {
	db, _, err := bootstrap.OpenStore(appCfg.DB, false)
	if err != nil {
		return err
	}
	defer db.Close()

	tempFile := target
	if compress {
		if strings.HasSuffix(target, ".gz") {
			tempFile = strings.TrimSuffix(target, ".gz")
		} else {
			tempFile = target + ".tmp"
		}
	}

	if _, err := db.Exec("VACUUM INTO ?", tempFile); err != nil {
		return fmt.Errorf("sqlite vacuum into: %w", err)
	}
	if !compress {
		return nil
	}
	defer os.Remove(tempFile)
	return compressFile(tempFile, target)
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		return err
	}
	return gw.Close()
}
