package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"text/tabwriter"

	adapterDiag "spreaddiag/adapters/stats/diagnostics"
	domainDiag "spreaddiag/domain/diagnostics"
	"spreaddiag/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Format selects the report renderer
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// DisplayPlaces is the rounding applied to every rendered number except JSON
const DisplayPlaces = 4

// ParseFormat maps a name (md is accepted for markdown) onto a Format
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatMarkdown, FormatHTML, FormatCSV, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", errors.InvalidInput(fmt.Sprintf("unknown report format %q", s))
}

// Yearly renders the yearly summary table
func Yearly(w io.Writer, format Format, table *domainDiag.YearlySummaryTable) error {
	if format == FormatJSON {
		return writeJSON(w, table)
	}

	header := append([]string{"Year"}, table.Columns()...)
	rounded := table.Rounded(DisplayPlaces)
	rows := make([][]string, len(rounded.Rows))
	for i, r := range rounded.Rows {
		row := []string{strconv.Itoa(r.Year)}
		for _, v := range r.Values() {
			row = append(row, formatNumber(v, format))
		}
		rows[i] = row
	}
	return renderGrid(w, format, "Yearly diagnostics", header, rows)
}

// suiteEntry is the JSON shape of one diagnostic outcome
type suiteEntry struct {
	Name   string              `json:"name"`
	Fields map[string]*float64 `json:"fields,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Suite renders engine outcomes as test / field / value rows
func Suite(w io.Writer, format Format, outcomes []adapterDiag.Outcome) error {
	if format == FormatJSON {
		entries := make([]suiteEntry, len(outcomes))
		for i, o := range outcomes {
			entries[i] = suiteEntry{Name: o.Name}
			if o.Err != nil {
				entries[i].Error = o.Err.Error()
				continue
			}
			entries[i].Fields = make(map[string]*float64)
			for k, v := range o.Result.Fields() {
				entries[i].Fields[k] = domainDiag.NullableFloat(v)
			}
		}
		return writeJSON(w, entries)
	}

	header := []string{"Test", "Field", "Value"}
	var rows [][]string
	for _, o := range outcomes {
		if o.Err != nil {
			rows = append(rows, []string{o.Name, "error", o.Err.Error()})
			continue
		}
		fields := o.Result.Fields()
		for _, name := range o.Result.FieldNames() {
			v := domainDiag.Round(fields[name], DisplayPlaces)
			rows = append(rows, []string{o.Name, name, formatNumber(v, format)})
		}
	}
	return renderGrid(w, format, "Diagnostic suite", header, rows)
}

func renderGrid(w io.Writer, format Format, title string, header []string, rows [][]string) error {
	switch format {
	case FormatText:
		return writeText(w, header, rows)
	case FormatMarkdown:
		_, err := io.WriteString(w, markdownTable(title, header, rows))
		return err
	case FormatHTML:
		return writeHTML(w, title, markdownTable(title, header, rows))
	case FormatCSV:
		return writeCSV(w, header, rows)
	}
	return errors.InvalidInput(fmt.Sprintf("unknown report format %q", format))
}

func writeText(w io.Writer, header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

func markdownTable(title string, header []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	seps := make([]string, len(header))
	for i := range seps {
		seps[i] = "---"
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range rows {
		escaped := make([]string, len(row))
		for i, cell := range row {
			escaped[i] = strings.ReplaceAll(cell, "|", "\\|")
		}
		b.WriteString("| " + strings.Join(escaped, " | ") + " |\n")
	}
	return b.String()
}

func writeHTML(w io.Writer, title, md string) error {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CompletePage,
	})
	_, err := w.Write(markdown.ToHTML([]byte(md), p, renderer))
	return err
}

func writeCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeJSON(w io.Writer, v interface{}) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.InternalError(err.Error()), "failed to encode report")
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func formatNumber(v float64, format Format) string {
	if math.IsNaN(v) {
		if format == FormatCSV {
			return ""
		}
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
