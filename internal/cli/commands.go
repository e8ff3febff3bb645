package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/intake-tracker/backend/internal/chart"
	"github.com/intake-tracker/backend/internal/dashboard"
	"github.com/intake-tracker/backend/internal/models"
)

func newColumnsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Show how each column is classified",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Service.Render(cmd.Context(), dashboard.Selection{})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tCLASS\tPLOTTABLE")
			for _, c := range view.Classified {
				name := c.Name
				if name == view.TimeColumn {
					name += " (time)"
				}
				fmt.Fprintf(w, "%s\t%s\t%t\n", name, c.Class, c.Plottable)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nDefault selection: %s\n", strings.Join(view.Defaults, ", "))
			return nil
		},
	}
}

func newRecordsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Print the raw sheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			table, err := a.Service.Table(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, strings.Join(table.Columns, "\t"))
			for _, row := range table.Rows() {
				fmt.Fprintln(w, strings.Join(row, "\t"))
			}
			return w.Flush()
		},
	}
}

func newSeriesCmd(opts *rootOptions) *cobra.Command {
	var series []string

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print the plotted points",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Service.Render(cmd.Context(), selection(cmd, series))
			if err != nil {
				return err
			}
			if view.Notice != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", view.Notice.Level, view.Notice.Message)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tSERIES\tVALUE")
			for _, p := range view.Points {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Time.Format("2006-01-02 15:04"), p.Series, models.CellText(p.Value))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if view.Unresolved > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d row(s) skipped: time not readable\n", view.Unresolved)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&series, "series", nil, "column to plot (repeatable); default is the automatic selection")
	return cmd
}

func newChartCmd(opts *rootOptions) *cobra.Command {
	var (
		series []string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Render the chart to a PNG or SVG file",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := chart.ParseFormat(filepath.Ext(out))
			if err != nil {
				return err
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.Service.Render(cmd.Context(), selection(cmd, series))
			if err != nil {
				return err
			}
			if view.Notice != nil {
				return fmt.Errorf("%s", view.Notice.Message)
			}

			loc, err := a.Config.Location()
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()

			chartOpts := chart.Options{
				Title:    a.Config.Server.Title,
				Width:    a.Config.Chart.Width,
				Height:   a.Config.Chart.Height,
				Location: loc,
			}
			if err := chart.Render(f, view.Points, format, chartOpts); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d points to %s\n", len(view.Points), out)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&series, "series", nil, "column to plot (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "intake.png", "output file (.png or .svg)")
	return cmd
}

func newAppendCmd(opts *rootOptions) *cobra.Command {
	var sets []string

	cmd := &cobra.Command{
		Use:   "append",
		Short: "Append one row to the sheet",
		Example: `  intakectl append --set "Time start=09:30" --set "Bottle (ml)=120" --set Notes=burped`,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseSets(sets)
			if err != nil {
				return err
			}

			a, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			row, err := a.Service.Append(cmd.Context(), values)
			if err != nil {
				return err
			}

			cells := make([]string, len(row))
			for i, v := range row {
				cells[i] = models.CellText(v)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Appended: %s\n", strings.Join(cells, " | "))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "column=value (repeatable)")
	return cmd
}

// selection treats any use of --series as an explicit choice.
func selection(cmd *cobra.Command, series []string) dashboard.Selection {
	return dashboard.Selection{
		Series: series,
		Picked: cmd.Flags().Changed("series"),
	}
}

func parseSets(sets []string) (map[string]string, error) {
	values := make(map[string]string, len(sets))
	for _, s := range sets {
		col, val, ok := strings.Cut(s, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid --set %q, expected column=value", s)
		}
		values[col] = val
	}
	return values, nil
}
