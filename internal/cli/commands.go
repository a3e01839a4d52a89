package cli

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/quentinrf/glucose-log/internal/adapters/rest"
	"github.com/quentinrf/glucose-log/internal/domain"
	"github.com/quentinrf/glucose-log/internal/views"
)

func (c *CLI) newRecordCmd() *cobra.Command {
	var (
		meal    string
		level   string
		comment string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record a new reading",
		Example: `  glucosectl record --meal "empty stomach" --level 90 --comment fasting
  glucosectl record --meal "after meal" --level 130`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var commentArg *string
			if cmd.Flags().Changed("comment") {
				commentArg = &comment
			}

			reading, err := c.client.CreateRecord(cmd.Context(), meal, level, commentArg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return writeJSON(out, rest.NewRecordResponse(reading))
			}
			fmt.Fprintf(out, "recorded #%d: %s %d%s\n", reading.ID, reading.MealContext, reading.Level, rangeNote(reading))
			return nil
		},
	}

	cmd.Flags().StringVar(&meal, "meal", "", `meal context: "empty stomach" or "after meal"`)
	cmd.Flags().StringVar(&level, "level", "", "integer sugar level, 0-1000")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")
	_ = cmd.MarkFlagRequired("meal")
	_ = cmd.MarkFlagRequired("level")
	return cmd
}

func (c *CLI) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show readings as one table per meal context, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := c.client.ListRecords(cmd.Context())
			if err != nil {
				return err
			}

			sections := views.Table(readings)
			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return writeJSON(out, sections)
			}
			renderTable(out, sections)
			return nil
		},
	}
}

func (c *CLI) newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show statistics per meal context",
		RunE: func(cmd *cobra.Command, args []string) error {
			readings, err := c.client.ListRecords(cmd.Context())
			if err != nil {
				return err
			}

			summaries := views.Summarize(readings)
			out := cmd.OutOrStdout()
			if c.jsonOutput() {
				return writeJSON(out, summaries)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MEAL\tCOUNT\tMIN\tMAX\tAVERAGE\tOUT OF RANGE")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f\t%d\n", s.MealContext, s.Count, s.Min, s.Max, s.Average, s.OutOfRange)
			}
			return tw.Flush()
		},
	}
}

func (c *CLI) newHealthCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the gRPC health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := insecure.NewCredentials()
			if c.v.GetString("tls-ca") != "" {
				tlsCfg, err := c.clientTLS()
				if err != nil {
					return err
				}
				creds = credentials.NewTLS(tlsCfg)
			}

			conn, err := grpc.NewClient(c.v.GetString("grpc-addr"), grpc.WithTransportCredentials(creds))
			if err != nil {
				return fmt.Errorf("dial: %w", err)
			}
			defer conn.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
			if err != nil {
				return fmt.Errorf("health check: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), resp.GetStatus().String())
			if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("server is %s", resp.GetStatus())
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "probe timeout")
	return cmd
}

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		// No API client needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "glucosectl %s (%s %s/%s)\n", Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

func renderTable(w io.Writer, sections []views.TableSection) {
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s (%d records)\n", section.MealContext, section.Count)

		if len(section.Rows) == 0 {
			fmt.Fprintln(w, "  No records yet.")
			continue
		}

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  TIME\tLEVEL\tCOMMENT")
		for _, row := range section.Rows {
			level := fmt.Sprintf("%d", row.Level)
			if row.OutOfRange {
				level += " !"
			}
			comment := "-"
			if row.Comment != nil {
				comment = *row.Comment
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", row.CreatedAt, level, comment)
		}
		_ = tw.Flush()
	}
}

func rangeNote(r *domain.Reading) string {
	if r.IsOutOfRange() {
		return " (out of range)"
	}
	return ""
}
