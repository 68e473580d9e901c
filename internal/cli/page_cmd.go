package cli

import (
	"fmt"
	"io"

	"github.com/dalemusser/stratasite/internal/app/system/sectioneditor"
	"github.com/dalemusser/stratasite/internal/app/system/sectionrender"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/spf13/cobra"
)

func newPageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage pages",
	}

	cmd.AddCommand(
		newPageListCmd(app),
		newPageShowCmd(app),
		newPageCreateCmd(app),
		newPageDeleteCmd(app),
		newPageMetaCmd(app),
		newPageRenderCmd(app),
	)

	return cmd
}

func pageArg(s string) (content.PageName, error) {
	name, err := content.ParsePageName(s)
	if err != nil {
		return "", fmt.Errorf("%q: %w", s, err)
	}
	return name, nil
}

func newPageListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored pages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			pages, err := editor.List(cmd.Context(), sectioneditor.System)
			if err != nil {
				return err
			}
			return app.emit(cmd, pages, func(w io.Writer) error {
				if len(pages) == 0 {
					fmt.Fprintln(w, "No pages. Run `sitectl seed` to create the defaults.")
					return nil
				}
				rows := make([][]string, 0, len(pages))
				for _, p := range pages {
					rows = append(rows, []string{string(p.PageName), p.Title, fmt.Sprint(len(p.Sections))})
				}
				return table(w, []string{"PAGE", "TITLE", "SECTIONS"}, rows)
			})
		},
	}
}

func newPageShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show PAGE",
		Short: "Show a page and its sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.Get(cmd.Context(), sectioneditor.System, name)
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}
}

func newPageCreateCmd(app *App) *cobra.Command {
	var title, description string
	var keywords []string

	cmd := &cobra.Command{
		Use:   "create PAGE",
		Short: "Create an empty page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.CreatePage(cmd.Context(), sectioneditor.System, name, title, description, keywords)
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Created page %s\n", p.PageName)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Page title")
	cmd.Flags().StringVar(&description, "description", "", "Meta description")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Meta keywords (comma-separated)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newPageDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete PAGE",
		Short: "Delete a page and all its sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			if err := editor.DeletePage(cmd.Context(), sectioneditor.System, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted page %s\n", name)
			return nil
		},
	}
}

func newPageMetaCmd(app *App) *cobra.Command {
	var title, description string
	var keywords []string

	cmd := &cobra.Command{
		Use:   "meta PAGE",
		Short: "Change a page's title, description or keywords",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			var meta content.UpdateMeta
			if cmd.Flags().Changed("title") {
				meta.Title = &title
			}
			if cmd.Flags().Changed("description") {
				meta.MetaDescription = &description
			}
			if cmd.Flags().Changed("keywords") {
				meta.MetaKeywords = &keywords
			}
			if meta.Title == nil && meta.MetaDescription == nil && meta.MetaKeywords == nil {
				return fmt.Errorf("nothing to change: pass --title, --description or --keywords")
			}

			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.UpdateMeta(cmd.Context(), sectioneditor.System, name, meta)
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Page title")
	cmd.Flags().StringVar(&description, "description", "", "Meta description")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "Meta keywords (comma-separated)")

	return cmd
}

func newPageRenderCmd(app *App) *cobra.Command {
	var document bool

	cmd := &cobra.Command{
		Use:   "render PAGE",
		Short: "Render a page to HTML",
		Long: "Render a page to HTML. By default each rendered section is printed on its own;\n" +
			"--document prints the complete HTML document the site serves.\n" +
			"Skipped sections are reported on stderr.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.Get(cmd.Context(), sectioneditor.System, name)
			if err != nil {
				return err
			}

			var res sectionrender.Result
			if document && app.Format == FormatText {
				res, err = app.Renderer.Document(cmd.OutOrStdout(), p)
				if err != nil {
					return err
				}
			} else {
				res = app.Renderer.RenderPage(p)
				err = app.emit(cmd, res, func(w io.Writer) error {
					for _, b := range res.Blocks {
						fmt.Fprintf(w, "<!-- %s (%s) -->\n%s\n", b.ID, b.Type, b.HTML)
					}
					return nil
				})
				if err != nil {
					return err
				}
			}

			for _, s := range res.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s (%s): %s %v\n", s.ID, s.Type, s.Reason, s.Fields)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&document, "document", false, "Print the full HTML document")

	return cmd
}
