// Command tsview is the client of a tsviewd backend: it lists, imports and
// deletes datasets, exports charts and runs the terminal viewer.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/bpowers/tsview"
	"github.com/bpowers/tsview/api"
	"github.com/bpowers/tsview/internal/logging"
	"github.com/bpowers/tsview/internal/tui"
)

type options struct {
	url     string
	timeout time.Duration
}

func (o *options) client() (*api.Client, error) {
	return api.NewClient(o.url, api.WithTimeout(o.timeout))
}

func (o *options) viewer() (*tsview.Viewer, error) {
	c, err := o.client()
	if err != nil {
		return nil, err
	}
	return tsview.New(c, tsview.WithRequestTimeout(o.timeout)), nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "tsview",
		Short:        "Browse and chart time-series datasets served by tsviewd",
		SilenceUsage: true,
	}
	url := os.Getenv("TSVIEW_URL")
	if url == "" {
		url = api.DefaultBaseURL
	}
	root.PersistentFlags().StringVar(&opts.url, "url", url, "backend base URL (env TSVIEW_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", tsview.DefaultRequestTimeout, "per-request timeout")

	root.AddCommand(
		newDatasetsCmd(opts),
		newImportCmd(opts),
		newDeleteCmd(opts),
		newPlotCmd(opts),
		newTUICmd(opts),
	)
	return root
}

func newDatasetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List datasets and their saved views",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			datasets, err := c.ListDatasets(cmd.Context())
			if err != nil {
				return fmt.Errorf("list datasets: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tROWS\tSERIES\tVIEW")
			for _, ds := range datasets {
				view := "-"
				if o, ok := ds.Opset(); ok && o.Confirmed() {
					view = fmt.Sprintf("%s [%d,%d) %s", o.ID, o.Offset, o.Offset+o.Limit, strings.Join(o.Plot, ","))
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", ds.ID, ds.Name, ds.MaxLength, strings.Join(ds.SeriesCols, ","), view)
			}
			return tw.Flush()
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	var name, uploadType string
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Upload a CSV or XLSX file as a new dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}
			c, err := opts.client()
			if err != nil {
				return err
			}
			ds, err := c.UploadDataset(cmd.Context(), api.Upload{
				Name:       name,
				UploadType: uploadType,
				Filename:   filepath.Base(path),
				Body:       f,
			})
			if err != nil {
				return fmt.Errorf("import %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d rows\n", ds.ID, ds.Name, ds.MaxLength)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "dataset name (default: file name)")
	cmd.Flags().StringVar(&uploadType, "type", api.UploadImport, "upload type: import or add")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a dataset with its rows and saved view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client()
			if err != nil {
				return err
			}
			if err := c.DeleteDataset(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("delete %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newTUICmd(opts *options) *cobra.Command {
	var horizon int
	var logFile string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the terminal viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := opts.viewer()
			if err != nil {
				return err
			}
			if err := redirectLogs(logFile); err != nil {
				return err
			}
			defer logging.SetOutput(os.Stderr)
			p := tea.NewProgram(tui.New(v, tui.WithHorizon(horizon)), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().IntVar(&horizon, "horizon", tui.DefaultHorizon, "forecast horizon in rows")
	cmd.Flags().StringVar(&logFile, "log-file", os.Getenv("TSVIEW_LOG"), "append logs here while the viewer runs (env TSVIEW_LOG)")
	return cmd
}

// redirectLogs keeps log lines off the alternate screen.
func redirectLogs(path string) error {
	if path == "" {
		logging.SetOutput(io.Discard)
		return nil
	}
	f, err := tea.LogToFile(path, "tsview")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logging.SetOutput(f)
	return nil
}
