package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/config"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/pkg/client"
)

type agentOpts struct {
	baseURL   string
	scannerID string
	apiKey    string
	interval  time.Duration
}

// merge lets flags win over the client section of the config file.
func (a agentOpts) merge(cfg config.ClientConfig) agentOpts {
	if a.baseURL == "" {
		a.baseURL = cfg.BaseURL
	}
	if a.scannerID == "" {
		a.scannerID = cfg.ScannerID
	}
	if a.apiKey == "" {
		a.apiKey = cfg.APIKey
	}
	if a.interval <= 0 {
		a.interval = time.Duration(cfg.HeartbeatIntervalSeconds) * time.Second
	}
	return a
}

func newRegisterCmd(opts *rootOpts) *cobra.Command {
	var baseURL string
	var req pb.RegisterScannerRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new community scanner and print its api key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a := agentOpts{baseURL: baseURL}.merge(cfg.Client)
			if a.baseURL == "" {
				return fmt.Errorf("coordinator base URL is required (--base-url or client.baseURL)")
			}

			resp, err := client.New(a.baseURL).Register(cmd.Context(), &req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scanner id: %s\n", resp.Id)
			fmt.Fprintf(out, "api key:    %s\n", resp.ApiKey)
			fmt.Fprintln(out, "store the api key now, it is not shown again")
			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "coordinator base URL")
	cmd.Flags().StringVar(&req.Name, "name", "", "scanner name")
	cmd.Flags().StringVar(&req.Description, "description", "", "scanner description")
	cmd.Flags().StringVar(&req.ContactEmail, "email", "", "operator contact email")

	return cmd
}

func newAgentCmd(opts *rootOpts) *cobra.Command {
	var flags agentOpts

	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Send heartbeats for a scanner until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			a := flags.merge(cfg.Client)
			if a.baseURL == "" || a.scannerID == "" || a.apiKey == "" {
				return fmt.Errorf("base URL, scanner id and api key are required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "heartbeating scanner %s every %s\n", a.scannerID, a.interval)
			// heartbeats are idempotent, so transport errors and 5xx are retried within the tick
			c := client.New(a.baseURL,
				client.WithTimeout(min(a.interval, 10*time.Second)),
				client.WithRetries(2, 500*time.Millisecond),
			)
			return c.RunHeartbeats(ctx, a.scannerID, a.apiKey, a.interval)
		},
	}

	cmd.Flags().StringVar(&flags.baseURL, "base-url", "", "coordinator base URL")
	cmd.Flags().StringVar(&flags.scannerID, "scanner-id", "", "scanner id")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "scanner api key")
	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "heartbeat interval")

	return cmd
}
