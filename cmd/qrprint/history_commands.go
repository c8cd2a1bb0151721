package main

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"qrprint/internal/history"
	"qrprint/internal/station"
	"qrprint/internal/textutil"
)

const historyURLLimit = 50

func newHistoryCommands(ctx *commandContext) []*cobra.Command {
	return []*cobra.Command{
		newHistoryListCommand(ctx),
		newShowCommand(ctx),
		newDeleteCommand(ctx),
		newClearCommand(ctx),
		newStatusCommand(ctx),
	}
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent print jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(cmd, false, func(st *station.Station) error {
				jobs, err := st.Store().Recent(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(jobs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No print history")
					return nil
				}
				rows := make([][]string, 0, len(jobs))
				for _, job := range jobs {
					rows = append(rows, []string{
						strconv.FormatInt(job.ID, 10),
						job.CreatedAt.In(time.Local).Format("01/02 15:04"),
						classDisplayName(st, job.Class),
						textutil.Truncate(job.URL, historyURLLimit),
						job.Status.DisplayName(),
					})
				}
				fmt.Fprint(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Time", "Type", "URL", "Status"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum entries to show (default dispatch.history_limit)")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(cmd, false, func(st *station.Station) error {
				job, err := st.Store().Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job #%d not found", id)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Job:      #%d\n", job.ID)
				fmt.Fprintf(out, "Type:     %s (%s)\n", classDisplayName(st, job.Class), job.Class)
				fmt.Fprintf(out, "URL:      %s\n", job.URL)
				fmt.Fprintf(out, "Payload:  %s\n", job.Payload)
				fmt.Fprintf(out, "Status:   %s\n", job.Status.DisplayName())
				fmt.Fprintf(out, "Created:  %s\n", job.CreatedAt.In(time.Local).Format(time.DateTime))
				if job.FinishedAt != nil {
					fmt.Fprintf(out, "Finished: %s\n", job.FinishedAt.In(time.Local).Format(time.DateTime))
				}
				if job.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", job.ErrorMessage)
				}
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(cmd, false, func(st *station.Station) error {
				removed, err := st.Store().Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if removed == 0 {
					return fmt.Errorf("job #%d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted job #%d\n", id)
				return nil
			})
		},
	}
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all print history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return errors.New("refusing to clear print history without --yes")
			}
			return ctx.withStation(cmd, false, func(st *station.Station) error {
				removed, err := st.Store().Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d history entries\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm deletion of all history")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show print history counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(cmd, false, func(st *station.Station) error {
				counts, err := st.Store().CountByStatus(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database: %s\n", st.Store().Path())

				rows := buildStatusRows(counts)
				if len(rows) == 0 {
					fmt.Fprintln(out, "No print history")
					return nil
				}
				fmt.Fprint(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

// buildStatusRows lists the conventional statuses first, then any others in
// name order, followed by a total.
func buildStatusRows(counts map[history.Status]int64) [][]string {
	if len(counts) == 0 {
		return nil
	}
	var rows [][]string
	var total int64
	seen := make(map[history.Status]struct{}, len(counts))
	for _, status := range history.AllStatuses() {
		seen[status] = struct{}{}
		if n := counts[status]; n > 0 {
			rows = append(rows, []string{string(status), strconv.FormatInt(n, 10)})
			total += n
		}
	}
	var extra []string
	for status := range counts {
		if _, ok := seen[status]; !ok {
			extra = append(extra, string(status))
		}
	}
	slices.Sort(extra)
	for _, status := range extra {
		n := counts[history.Status(status)]
		rows = append(rows, []string{status, strconv.FormatInt(n, 10)})
		total += n
	}
	rows = append(rows, []string{"total", strconv.FormatInt(total, 10)})
	return rows
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(raw), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}
