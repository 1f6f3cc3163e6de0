package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"housing-explorer/models"
)

var outputFormats = []string{"table", "markdown", "csv", "json"}

func validFormat(format string) error {
	for _, f := range outputFormats {
		if f == format || (format == "md" && f == "markdown") {
			return nil
		}
	}
	return fmt.Errorf("unknown format %q (want one of %v)", format, outputFormats)
}

// grid is one titled block of terminal output.
type grid struct {
	title  string
	header []string
	rows   [][]string
}

func renderGrids(w io.Writer, format string, grids ...grid) error {
	for i, g := range grids {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if err := renderGrid(w, format, g); err != nil {
			return err
		}
	}
	return nil
}

func renderGrid(w io.Writer, format string, g grid) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(g.header))
	for i, h := range g.header {
		header[i] = h
	}
	t.AppendHeader(header)
	for _, r := range g.rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = v
		}
		t.AppendRow(row)
	}

	switch format {
	case "csv":
		_, _ = fmt.Fprintf(w, "# %s\n", g.title)
		t.RenderCSV()
	case "md", "markdown":
		_, _ = fmt.Fprintf(w, "### %s\n\n", g.title)
		t.RenderMarkdown()
	default:
		t.SetTitle(g.title)
		t.SetStyle(table.StyleLight)
		if len(g.rows) == 0 {
			_, _ = fmt.Fprintf(w, "%s\n(no columns)\n", g.title)
			return nil
		}
		t.Render()
	}
	return nil
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func numericGrid(title string, summaries []models.NumericSummary) grid {
	g := grid{
		title:  title,
		header: []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"},
	}
	for _, s := range summaries {
		g.rows = append(g.rows, []string{
			s.Column, strconv.Itoa(s.Count),
			s.Mean.String(), s.Std.String(), s.Min.String(),
			s.P25.String(), s.P50.String(), s.P75.String(), s.Max.String(),
		})
	}
	return g
}

func categoricalGrid(title string, summaries []models.CategoricalSummary) grid {
	g := grid{
		title:  title,
		header: []string{"column", "count", "unique", "top", "freq"},
	}
	for _, s := range summaries {
		g.rows = append(g.rows, []string{
			s.Column, strconv.Itoa(s.Count),
			s.Unique.CountString(), s.TopValue(), s.Freq.CountString(),
		})
	}
	return g
}

func countsGrid(title string, counts []models.ValueCount) grid {
	g := grid{title: title, header: []string{"value", "count"}}
	for _, c := range counts {
		g.rows = append(g.rows, []string{c.Value, strconv.Itoa(c.Count)})
	}
	return g
}
