// Command stratasite serves the agency site, its public JSON API and the
// back-office API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/stratasite/internal/app/bootstrap"
	"github.com/dalemusser/waffle/app"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		fmt.Fprintf(os.Stderr, "stratasite: %v\n", err)
		os.Exit(1)
	}
}
