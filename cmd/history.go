package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/export"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/screens/summary"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/store"
	"github.com/abhisek/mathdrill/internal/ui/layout"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List, export and manage saved practice sessions",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		limit, _ := cmd.Flags().GetInt("limit")

		return withStore(func(st *store.Store) error {
			sessions, err := st.HistoryRepo().Load(cmd.Context(), user)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			if limit > 0 && len(sessions) > limit {
				sessions = sessions[:limit]
			}
			writeHistoryTable(cmd.OutOrStdout(), sessions)
			return nil
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session with every answer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			s, err := findSession(cmd, st, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", s.ID)
			fmt.Fprintf(out, "Time:      %s\n", s.Timestamp.Local().Format(session.TimestampLayout))
			fmt.Fprintf(out, "User:      %s\n", s.Username)
			fmt.Fprintf(out, "Score:     %d/%d (%.1f%%)\n", s.Score, s.Total, s.Accuracy)
			fmt.Fprintf(out, "Elapsed:   %s\n", layout.FormatElapsed(s.ElapsedSeconds))
			if len(s.Operations) > 0 {
				fmt.Fprintf(out, "Settings:  %s in [%d, %d]\n", joinOps(s.Operations), s.NumberMin, s.NumberMax)
			}
			fmt.Fprintln(out)
			for _, line := range summary.DetailLines(s.Details) {
				fmt.Fprintln(out, line)
			}
			return nil
		})
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions as an Excel workbook or CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		output, _ := cmd.Flags().GetString("output")
		format, _ := cmd.Flags().GetString("format")

		format, err := exportFormat(format, output)
		if err != nil {
			return err
		}

		return withStore(func(st *store.Store) error {
			sessions, err := st.HistoryRepo().Load(cmd.Context(), user)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			switch format {
			case "xlsx":
				err = export.WriteXLSX(w, sessions)
			default:
				err = export.WriteCSV(w, sessions)
			}
			if err != nil {
				return err
			}
			if output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d sessions to %s\n", len(sessions), output)
			}
			return nil
		})
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import sessions from a CSV history file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()

		sessions, err := export.ReadCSV(f, time.Local)
		if err != nil {
			return err
		}

		return withStore(func(st *store.Store) error {
			repo := st.HistoryRepo()
			for _, s := range sessions {
				if err := repo.Save(cmd.Context(), s); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions.\n", len(sessions))
			return nil
		})
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show totals across saved sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		return withStore(func(st *store.Store) error {
			stats, err := st.HistoryRepo().Stats(cmd.Context(), user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if stats.Sessions == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			fmt.Fprintf(out, "Sessions:        %d\n", stats.Sessions)
			fmt.Fprintf(out, "Questions:       %d\n", stats.Questions)
			fmt.Fprintf(out, "Correct:         %d\n", stats.Correct)
			fmt.Fprintf(out, "Mean accuracy:   %.1f%%\n", stats.MeanAccuracy)
			fmt.Fprintf(out, "Best accuracy:   %.1f%%\n", stats.BestAccuracy)
			fmt.Fprintf(out, "Time practiced:  %s\n", layout.FormatElapsed(stats.TotalSeconds))
			return nil
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(st *store.Store) error {
			s, err := findSession(cmd, st, args[0])
			if err != nil {
				return err
			}
			if err := st.HistoryRepo().Delete(cmd.Context(), s.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s.\n", s.ID)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyExportCmd, historyStatsCmd} {
		c.Flags().StringP("user", "u", "", "Only sessions whose username contains this text")
	}
	historyListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show (0 = all)")
	historyExportCmd.Flags().StringP("output", "o", "-", "Output file (- for stdout)")
	historyExportCmd.Flags().StringP("format", "f", "", "Export format: xlsx or csv (default from the output extension, else csv)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func withStore(fn func(*store.Store) error) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

// findSession resolves a full ID or a unique prefix of one.
func findSession(cmd *cobra.Command, st *store.Store, id string) (*session.SessionSummary, error) {
	repo := st.HistoryRepo()
	s, err := repo.Get(cmd.Context(), id)
	if !errors.Is(err, store.ErrNotFound) {
		return s, err
	}

	all, err := repo.Load(cmd.Context(), "")
	if err != nil {
		return nil, err
	}
	var match *session.SessionSummary
	for _, c := range all {
		if !strings.HasPrefix(c.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("session id %q is ambiguous", id)
		}
		match = c
	}
	if match == nil {
		return nil, err
	}
	return match, nil
}

func exportFormat(format, output string) (string, error) {
	format = strings.ToLower(format)
	if format == "" {
		if strings.EqualFold(filepath.Ext(output), ".xlsx") {
			return "xlsx", nil
		}
		return "csv", nil
	}
	if format != "xlsx" && format != "csv" {
		return "", fmt.Errorf("unknown export format %q (use xlsx or csv)", format)
	}
	if format == "xlsx" && output == "-" {
		return "", errors.New("xlsx export needs --output")
	}
	return format, nil
}

const userColumnWidth = 16

func writeHistoryTable(w io.Writer, sessions []*session.SessionSummary) {
	fmt.Fprintf(w, "%-8s  %-19s  %s  %7s  %8s  %6s  %s\n",
		"ID", "Timestamp", runewidth.FillRight("User", userColumnWidth), "Score", "Accuracy", "Time", "Operations")
	fmt.Fprintln(w, strings.Repeat("─", 90))
	for _, s := range sessions {
		user := runewidth.FillRight(runewidth.Truncate(s.Username, userColumnWidth, "…"), userColumnWidth)
		fmt.Fprintf(w, "%-8s  %-19s  %s  %7s  %7.1f%%  %6s  %s\n",
			shortID(s.ID),
			s.Timestamp.Local().Format(session.TimestampLayout),
			user,
			fmt.Sprintf("%d/%d", s.Score, s.Total),
			s.Accuracy,
			layout.FormatElapsed(s.ElapsedSeconds),
			joinOps(s.Operations),
		)
	}
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func joinOps(ops []problemgen.Operation) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ", ")
}
