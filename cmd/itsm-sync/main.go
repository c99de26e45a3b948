// itsm-sync pushes internal ITSM tickets to Azure DevOps, GitHub and Jira.
//
// Configuration is read from ~/.config/itsm-sync/config.yaml (override
// with --config or ITSM_SYNC_CONFIG). A .env file in the working
// directory is loaded first so secrets can be supplied as
// ITSM_SYNC_<TYPE>_<KEY> variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nhle/itsm-sync/internal/app"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(os.Stdout, os.Stderr).Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if errors.Is(err, app.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
