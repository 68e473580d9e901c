// Command sitectl edits site pages stored in a local buntdb file.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/dalemusser/stratasite/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := cli.Execute(ctx, os.Stderr)
	stop()
	os.Exit(code)
}
