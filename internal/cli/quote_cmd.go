package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/dalemusser/stratasite/internal/domain/quote"
	"github.com/spf13/cobra"
)

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Inspect the quote catalog and price selections",
	}

	cmd.AddCommand(
		newQuoteCatalogCmd(app),
		newQuoteEstimateCmd(app),
	)

	return cmd
}

func newQuoteCatalogCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List plans, services and options",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := app.Intake.Catalog().Entries()
			options := quote.Options()
			out := struct {
				Entries []quote.Entry  `json:"entries"`
				Options []quote.Option `json:"options"`
			}{entries, options}

			return app.emit(cmd, out, func(w io.Writer) error {
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{e.ID, string(e.Kind), e.Name, formatAmount(e.BasePrice), strings.Join(e.Categories, ",")})
				}
				if err := table(w, []string{"ID", "KIND", "NAME", "BASE", "CATEGORIES"}, rows); err != nil {
					return err
				}
				fmt.Fprintln(w)
				rows = rows[:0]
				for _, o := range options {
					choices := make([]string, len(o.Choices))
					for i, c := range o.Choices {
						choices[i] = fmt.Sprintf("%s(+%s)", c.Value, formatAmount(c.Surcharge))
					}
					rows = append(rows, []string{o.Key, o.Label, strings.Join(choices, " ")})
				}
				return table(w, []string{"OPTION", "LABEL", "CHOICES"}, rows)
			})
		},
	}
}

func newQuoteEstimateCmd(app *App) *cobra.Command {
	var options map[string]string

	cmd := &cobra.Command{
		Use:     "estimate PLAN_OR_SERVICE_ID",
		Short:   "Price a plan or service with selected options",
		Example: `  sitectl quote estimate professional --option teamSize=medium --option ecommerce=true`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, price, err := app.Intake.Estimate(args[0], quote.Selection(options))
			if err != nil {
				return err
			}
			out := struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				quote.Price
			}{entry.ID, entry.Name, price}

			return app.emit(cmd, out, func(w io.Writer) error {
				fmt.Fprintf(w, "%s\n\n", entry.Name)
				rows := [][]string{{"base", "", formatAmount(price.Base)}}
				for _, l := range price.Lines {
					rows = append(rows, []string{l.Option, l.Choice, formatAmount(l.Amount)})
				}
				rows = append(rows, []string{"total", "", formatAmount(price.Total) + " " + price.Currency})
				return table(w, []string{"ITEM", "CHOICE", "AMOUNT"}, rows)
			})
		},
	}

	cmd.Flags().StringToStringVar(&options, "option", nil, "Option choice as key=value (repeatable)")

	return cmd
}

// formatAmount groups thousands with dots, as prices are shown on the site.
func formatAmount(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprint(n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
