package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/spf13/cobra"
)

// emit writes v as indented JSON when --format json, or calls text otherwise.
func (a *App) emit(cmd *cobra.Command, v any, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if a.Format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}

func table(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, r := range rows {
		fmt.Fprintln(tw, strings.Join(r, "\t"))
	}
	return tw.Flush()
}

// writePage prints a page header and its sections in order.
func writePage(w io.Writer, p content.PageContent) error {
	fmt.Fprintf(w, "%s  %s\n", p.PageName, p.Title)
	if p.MetaDescription != "" {
		fmt.Fprintf(w, "  description  %s\n", p.MetaDescription)
	}
	if len(p.MetaKeywords) > 0 {
		fmt.Fprintf(w, "  keywords     %s\n", strings.Join(p.MetaKeywords, ", "))
	}
	if !p.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "  updated      %s by %s\n", p.UpdatedAt.Format("2006-01-02 15:04"), p.UpdatedByName)
	}
	fmt.Fprintln(w)

	sections := p.Ordered()
	if len(sections) == 0 {
		fmt.Fprintln(w, "(no sections)")
		return nil
	}
	rows := make([][]string, 0, len(sections))
	for _, s := range sections {
		rows = append(rows, []string{fmt.Sprint(s.Order), s.ID, string(s.Type), summary(s.Fields)})
	}
	return table(w, []string{"ORDER", "ID", "TYPE", "FIELDS"}, rows)
}

// summary lists a section's field names, with item counts for lists.
func summary(f content.Fields) string {
	keys := f.Keys()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := f[k]
		switch v.Shape() {
		case content.ShapeItems, content.ShapeList:
			parts = append(parts, fmt.Sprintf("%s[%d]", k, v.Len()))
		default:
			parts = append(parts, k)
		}
	}
	return strings.Join(parts, " ")
}
