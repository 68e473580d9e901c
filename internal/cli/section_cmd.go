package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dalemusser/stratasite/internal/app/system/sectioneditor"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/spf13/cobra"
)

func newSectionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "section",
		Short: "Add, edit, reorder and remove page sections",
	}

	cmd.AddCommand(
		newSectionAddCmd(app),
		newSectionSetCmd(app),
		newSectionFormCmd(app),
		newSectionMoveCmd(app),
		newSectionRemoveCmd(app),
	)

	return cmd
}

// parseFields decodes a JSON object of section fields.
func parseFields(raw string) (content.Fields, error) {
	if raw == "" {
		return content.Fields{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("--fields must be a JSON object: %w", err)
	}
	return content.FieldsFromNative(m)
}

func newSectionAddCmd(app *App) *cobra.Command {
	var fieldsJSON string

	cmd := &cobra.Command{
		Use:   "add PAGE TYPE",
		Short: "Append a section of TYPE to a page",
		Example: `  sitectl section add home hero --fields '{"title":"Merhaba","subtitle":"Web ajansı"}'
  sitectl section add services pricing --fields '{"title":"Paketler","plans":[]}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			t := content.SectionType(args[1])
			fields, err := parseFields(fieldsJSON)
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			_, s, err := editor.AddSection(cmd.Context(), sectioneditor.System, name, t, fields)
			if err != nil {
				return err
			}
			return app.emit(cmd, s, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added %s section %s at position %d\n", s.Type, s.ID, s.Order)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&fieldsJSON, "fields", "", "Section fields as a JSON object")

	return cmd
}

func newSectionSetCmd(app *App) *cobra.Command {
	var fieldsJSON string

	cmd := &cobra.Command{
		Use:   "set PAGE SECTION_ID",
		Short: "Merge field values into a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			patch, err := parseFields(fieldsJSON)
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.UpdateFields(cmd.Context(), sectioneditor.System, name, args[1], patch)
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}

	cmd.Flags().StringVar(&fieldsJSON, "fields", "", "Field values as a JSON object")
	_ = cmd.MarkFlagRequired("fields")

	return cmd
}

func newSectionFormCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "form PAGE SECTION_ID",
		Short: "Show the editable fields of a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			form, err := editor.Form(cmd.Context(), sectioneditor.System, name, args[1])
			if err != nil {
				return err
			}
			return app.emit(cmd, form, func(w io.Writer) error {
				fmt.Fprintf(w, "%s  %s\n\n", form.SectionID, form.Label)
				rows := make([][]string, 0, len(form.Fields))
				for _, f := range form.Fields {
					req := ""
					if f.Required {
						req = "*"
					}
					val, _ := json.Marshal(f.Value)
					rows = append(rows, []string{f.Name + req, string(f.Kind), string(val)})
				}
				if err := table(w, []string{"FIELD", "KIND", "VALUE"}, rows); err != nil {
					return err
				}
				for _, p := range form.Problems {
					fmt.Fprintf(w, "! %s\n", p)
				}
				return nil
			})
		},
	}
}

func newSectionMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move PAGE SECTION_ID ORDER",
		Short: "Move a section to a 1-based position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			order, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid order %q: %w", args[2], err)
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.Move(cmd.Context(), sectioneditor.System, name, args[1], order)
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}
}

func newSectionRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PAGE SECTION_ID",
		Short: "Remove a section",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.Remove(cmd.Context(), sectioneditor.System, name, args[1])
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}
}
