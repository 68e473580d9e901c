// Package cli implements sitectl, the operator tool for editing site pages
// stored in a local buntdb file. Every page mutation goes through the same
// section editor the HTTP service uses.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dalemusser/stratasite/internal/app/store/pagefile"
	"github.com/dalemusser/stratasite/internal/app/system/sectioneditor"
	"github.com/dalemusser/stratasite/internal/app/system/sectionrender"
	"github.com/dalemusser/stratasite/internal/domain/quote"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// DefaultDB is the page file used when neither --db nor SITECTL_DB is set.
const DefaultDB = "sitectl.db"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// App holds what the commands share. The page store is opened lazily so
// commands that do not touch pages (quote estimate) need no file.
type App struct {
	DBPath  string
	Verbose bool
	Format  string

	Logger   *zap.Logger
	Renderer *sectionrender.Renderer
	Intake   *quote.Intake

	store  *pagefile.Store
	editor *sectioneditor.Editor
}

// open returns the editor, opening the page file on first use.
func (a *App) open() (*sectioneditor.Editor, *pagefile.Store, error) {
	if a.store == nil {
		s, err := pagefile.Open(a.DBPath)
		if err != nil {
			return nil, nil, err
		}
		a.store = s
		a.editor = sectioneditor.New(s, a.Logger)
		a.Logger.Debug("opened page file", zap.String("path", a.DBPath))
	}
	return a.editor, a.store, nil
}

// Close releases the page file if it was opened.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.editor = nil, nil
	return err
}

// NewRootCmd creates the top-level "sitectl" command.
func NewRootCmd() *cobra.Command {
	app := &App{Logger: zap.NewNop()}

	defaultDB := os.Getenv("SITECTL_DB")
	if defaultDB == "" {
		defaultDB = DefaultDB
	}

	root := &cobra.Command{
		Use:           "sitectl",
		Short:         "Edit site pages, sections and quote estimates from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Format != FormatText && app.Format != FormatJSON {
				return fmt.Errorf("invalid --format %q (want text or json)", app.Format)
			}
			if app.Verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				app.Logger = l
			}
			r, err := sectionrender.New()
			if err != nil {
				return err
			}
			app.Renderer = r
			app.Intake = quote.NewIntake(quote.DefaultCatalog())
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			_ = app.Logger.Sync()
			return app.Close()
		},
	}

	root.PersistentFlags().StringVar(&app.DBPath, "db", defaultDB, "Page file path (env SITECTL_DB)")
	root.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log editor activity to stderr")
	root.PersistentFlags().StringVar(&app.Format, "format", FormatText, "Output format (text|json)")

	root.AddCommand(
		newPageCmd(app),
		newSectionCmd(app),
		newItemCmd(app),
		newSeedCmd(app),
		newQuoteCmd(app),
	)

	return root
}

// Execute runs sitectl with os.Args and reports errors on stderr.
func Execute(ctx context.Context, stderr io.Writer) int {
	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
