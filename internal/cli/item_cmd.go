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

func newItemCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Edit the entries of a section's list field (plans, faq items, ...)",
	}

	cmd.AddCommand(
		newItemAddCmd(app),
		newItemRemoveCmd(app),
		newItemMoveCmd(app),
	)

	return cmd
}

func intArgs(args ...string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("invalid index %q", a)
		}
		out[i] = n
	}
	return out, nil
}

func newItemAddCmd(app *App) *cobra.Command {
	var itemJSON string
	var at int

	cmd := &cobra.Command{
		Use:     "add PAGE SECTION_ID FIELD",
		Short:   "Insert an item into a list field",
		Example: `  sitectl item add home faq-1a2b3c4d items --item '{"question":"Ne kadar sürer?","answer":"2-4 hafta."}'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			var m map[string]any
			if err := json.Unmarshal([]byte(itemJSON), &m); err != nil {
				return fmt.Errorf("--item must be a JSON object: %w", err)
			}
			item, err := content.ItemFromNative(m)
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.AddItem(cmd.Context(), sectioneditor.System, name, args[1], args[2], item, at)
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}

	cmd.Flags().StringVar(&itemJSON, "item", "", "Item as a JSON object")
	cmd.Flags().IntVar(&at, "at", -1, "0-based position (default appends)")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

func newItemRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove PAGE SECTION_ID FIELD INDEX",
		Short: "Remove the item at a 0-based index",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			idx, err := intArgs(args[3])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.RemoveItem(cmd.Context(), sectioneditor.System, name, args[1], args[2], idx[0])
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}
}

func newItemMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move PAGE SECTION_ID FIELD FROM TO",
		Short: "Move an item between 0-based positions",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := pageArg(args[0])
			if err != nil {
				return err
			}
			idx, err := intArgs(args[3], args[4])
			if err != nil {
				return err
			}
			editor, _, err := app.open()
			if err != nil {
				return err
			}
			p, err := editor.MoveItem(cmd.Context(), sectioneditor.System, name, args[1], args[2], idx[0], idx[1])
			if err != nil {
				return err
			}
			return app.emit(cmd, p, func(w io.Writer) error { return writePage(w, p) })
		},
	}
}
