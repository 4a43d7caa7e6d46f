package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/pb"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/api/service"
	"gitlab.apk-group.net/siem/backend/scanner-coordinator/app"
)

func newMetricsCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "metrics",
		Short: "Print fleet metrics as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c app.AppContainer) error {
				resp, err := service.NewScannerService(c.ScannerService(ctx)).FleetMetrics(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			})
		},
	}
}

func newRankCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "rank",
		Short: "List dispatchable scanners by weight, heaviest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c app.AppContainer) error {
				resp, err := service.NewScannerService(c.ScannerService(ctx)).RankScanners(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "WEIGHT\tID\tNAME\tSUCCESS\tAVG_MS\tLAST_HEARTBEAT")
				for _, r := range resp.Scanners {
					fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
						r.Weight, r.Scanner.Id, r.Scanner.Name, r.Scanner.SuccessRate,
						r.Scanner.AverageCompletionTimeMs, r.Scanner.LastHeartbeatAt)
				}
				return w.Flush()
			})
		},
	}
}

func newListCmd(opts *rootOpts) *cobra.Command {
	var req pb.ListScannersRequest
	var blacklisted string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scanners, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch blacklisted {
			case "":
			case "true", "false":
				b := blacklisted == "true"
				req.Blacklisted = &b
			default:
				return fmt.Errorf("--blacklisted must be true or false, got %q", blacklisted)
			}
			return opts.withContainer(cmd, func(ctx context.Context, c app.AppContainer) error {
				resp, err := service.NewScannerService(c.ScannerService(ctx)).ListScanners(ctx, &req)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tNAME\tSTATUS\tBLACKLISTED\tSUCCESS\tJOBS\tLAST_HEARTBEAT")
				for _, s := range resp.Scanners {
					fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\t%d/%d\t%s\n",
						s.Id, s.Name, s.Status, s.IsBlacklisted, s.SuccessRate,
						s.TotalJobsCompleted, s.TotalJobsCompleted+s.TotalJobsFailed, s.LastHeartbeatAt)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVar(&req.Status, "status", "", "pending, online, offline or degraded")
	cmd.Flags().StringVar(&blacklisted, "blacklisted", "", "true or false")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "maximum rows, 0 for all")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "rows to skip")

	return cmd
}

func newSweepCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark online scanners with a stale heartbeat offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c app.AppContainer) error {
				n, err := c.Sweeper().Sweep(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "marked %d scanner(s) offline\n", n)
				return nil
			})
		},
	}
}

func newBlacklistCmd(opts *rootOpts) *cobra.Command {
	var until string

	cmd := &cobra.Command{
		Use:   "blacklist <scanner-id>",
		Short: "Stop a scanner from heartbeating and being dispatched",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c app.AppContainer) error {
				sc, err := service.NewScannerService(c.ScannerService(ctx)).Blacklist(ctx, &pb.BlacklistRequest{
					Id:    args[0],
					Until: until,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanner %s blacklisted\n", sc.Id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&until, "until", "", "informational end of the blacklist (RFC3339)")

	return cmd
}

func newUnblacklistCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "unblacklist <scanner-id>",
		Short: "Lift a scanner blacklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withContainer(cmd, func(ctx context.Context, c app.AppContainer) error {
				sc, err := service.NewScannerService(c.ScannerService(ctx)).LiftBlacklist(ctx, &pb.GetScannerRequest{Id: args[0]})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanner %s blacklist lifted\n", sc.Id)
				return nil
			})
		},
	}
}
