package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/vpnadmin/internal/client"
)

func init() {
	var loginToken string
	var loginCmd = &cobra.Command{
		Use:   "login",
		Short: "Save an operator token for later commands",
		Long: `Validates an operator token against the server and stores it in the session file.
Mint tokens on the server host with "vpnadmin token issue <name>". Without --token the token is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := loginToken
			if raw == "" {
				fmt.Fprint(os.Stderr, "Token: ")
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				raw = line
			}
			target := serverURL
			if target == "" {
				target = appCfg.Client.ServerURL
			}

			sess := client.NewSession(appCfg.Client.SessionPath)
			if err := sess.SetToken(target, raw); err != nil {
				return err
			}
			c, err := newAPIClient(sess)
			if err != nil {
				return err
			}
			info, err := c.Whoami(cmd.Context())
			if err != nil {
				return fmt.Errorf("token rejected by %s: %w", c.ServerURL(), err)
			}
			sess.ServerURL = c.ServerURL()
			if err := sess.Save(); err != nil {
				return err
			}
			fmt.Printf("Logged in to %s as %s (expires %s).\n", sess.ServerURL, info.Subject, info.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	loginCmd.Flags().StringVar(&loginToken, "token", "", "operator token")
	rootCmd.AddCommand(loginCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Revoke the saved token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := client.NewSession(appCfg.Client.SessionPath)
			if err := sess.Load(); err != nil {
				if errors.Is(err, client.ErrNoSession) || errors.Is(err, client.ErrSessionExpired) {
					fmt.Println("Not logged in.")
					return nil
				}
				return err
			}
			c, err := newAPIClient(sess)
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the operator behind the saved token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loggedInClient()
			if err != nil {
				return err
			}
			info, err := c.Whoami(cmd.Context())
			if err != nil {
				return err
			}
			return render(info, []string{"SUBJECT", "SERVER", "EXPIRES"}, [][]string{{
				info.Subject, c.ServerURL(), info.ExpiresAt.Format(time.RFC3339),
			}})
		},
	})
}

func newAPIClient(sess *client.Session) (*client.Client, error) {
	return client.New(client.Options{
		ServerURL: firstNonEmpty(serverURL, sess.ServerURL, appCfg.Client.ServerURL),
		Session:   sess,
		Timeout:   appCfg.Client.Timeout,
		Language:  language,
		Logger:    logger,
	})
}

// loggedInClient 读取会话文件；没有有效会话时提示先登录。
func loggedInClient() (*client.Client, error) {
	sess := client.NewSession(appCfg.Client.SessionPath)
	if err := sess.Load(); err != nil {
		switch {
		case errors.Is(err, client.ErrSessionExpired):
			return nil, fmt.Errorf("session expired, run \"vpnadmin login\" again")
		case errors.Is(err, client.ErrNoSession):
			return nil, fmt.Errorf("not logged in, run \"vpnadmin login\": %w", err)
		}
		return nil, err
	}
	return newAPIClient(sess)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
