package cli

import (
	"fmt"
	"io"

	"github.com/dalemusser/stratasite/internal/app/system/seeding"
	"github.com/dalemusser/stratasite/internal/domain/content"
	"github.com/spf13/cobra"
)

func newSeedCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default pages that do not exist yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := app.open()
			if err != nil {
				return err
			}
			created, err := seeding.SeedPages(cmd.Context(), store, app.Logger)
			if err != nil {
				return err
			}
			if created == nil {
				created = []content.PageName{}
			}
			return app.emit(cmd, created, func(w io.Writer) error {
				if len(created) == 0 {
					_, err := fmt.Fprintln(w, "All default pages already exist.")
					return err
				}
				for _, name := range created {
					fmt.Fprintf(w, "Seeded %s\n", name)
				}
				return nil
			})
		},
	}
}
