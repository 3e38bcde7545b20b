package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bpowers/tsview"
	"github.com/bpowers/tsview/internal/chart"
	"github.com/bpowers/tsview/palette"
)

var forecastBand = palette.Color{Name: "band", Hex: "#999999"}

type plotFlags struct {
	series   []string
	offset   int
	limit    int
	out      string
	forecast string
	horizon  int
	width    int
	height   int
}

func newPlotCmd(opts *options) *cobra.Command {
	var f plotFlags
	cmd := &cobra.Command{
		Use:   "plot ID",
		Short: "Save a dataset view and export its window as a PNG chart",
		Long: `plot opens a dataset the way the viewer does, applies the requested series
and row window (saving them as the dataset's view) and renders the fetched
window. Without --series or --offset/--limit the saved view is used as is.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := opts.viewer()
			if err != nil {
				return err
			}
			return plot(cmd, v, args[0], f)
		},
	}
	cmd.Flags().StringSliceVar(&f.series, "series", nil, "series to plot (comma separated)")
	cmd.Flags().IntVar(&f.offset, "offset", 0, "first row of the window")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "number of rows in the window")
	cmd.Flags().StringVarP(&f.out, "out", "o", "chart.png", "output PNG path")
	cmd.Flags().StringVar(&f.forecast, "forecast", "", "overlay a forecast of this series")
	cmd.Flags().IntVar(&f.horizon, "horizon", 10, "forecast horizon in rows")
	cmd.Flags().IntVar(&f.width, "width", 1024, "image width")
	cmd.Flags().IntVar(&f.height, "height", 400, "image height")
	return cmd
}

func plot(cmd *cobra.Command, v *tsview.Viewer, id string, f plotFlags) error {
	v.Drain(v.Init())
	if err := v.CatalogErr(); err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	v.Drain(v.OpenDataset(id))
	ds, ok := v.Current()
	if !ok {
		return fmt.Errorf("dataset %q not found", id)
	}

	if len(f.series) > 0 {
		v.Drain(v.Toggle(f.series))
	}
	flags := cmd.Flags()
	if flags.Changed("offset") || flags.Changed("limit") {
		st := v.Window()
		offset, limit := st.Offset, st.Limit
		if flags.Changed("offset") {
			offset = f.offset
		}
		if flags.Changed("limit") {
			limit = f.limit
		}
		v.Drain(v.DragDone(offset, offset+limit))
	}
	if err := v.Err(id); err != nil {
		return err
	}
	o, ok := v.Opset()
	if !ok {
		return errors.New("no series selected: pass --series")
	}

	if f.forecast != "" {
		fc, err := v.RequestForecast(f.forecast, f.horizon)
		if err != nil {
			return err
		}
		v.Drain(fc)
		if err := v.Err(id); err != nil {
			return err
		}
	}

	var lines []chart.Line
	for _, s := range o.Plot {
		c, _ := v.Color(s)
		lines = append(lines, chart.Line{ID: s, Color: c})
	}
	if fc, ok := v.Forecast(); ok {
		c, _ := v.Color(fc.SeriesID)
		lines = append(lines,
			chart.Line{ID: fc.CenterName(), Color: c, Dashed: true},
			chart.Line{ID: fc.UpperName(), Color: forecastBand, Dashed: true},
			chart.Line{ID: fc.LowerName(), Color: forecastBand, Dashed: true},
		)
	}

	out, err := os.Create(f.out)
	if err != nil {
		return err
	}
	title := fmt.Sprintf("%s [%d, %d)", ds.Name, o.Offset, o.Offset+o.Limit)
	if err := chart.Render(out, v.Display(), lines, chart.Options{Title: title, Width: f.width, Height: f.height}); err != nil {
		out.Close()
		os.Remove(f.out)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (view %s: %s, %d points)\n", f.out, o.ID, strings.Join(o.Plot, ","), len(v.Display()))
	return nil
}
