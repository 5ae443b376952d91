package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/shanehull/regscraper/internal/config"
	"github.com/shanehull/regscraper/internal/dates"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		var cfgErr *config.ConfigurationError
		switch {
		case errors.As(err, &cfgErr):
			color.New(color.FgRed).Fprintln(os.Stderr, cfgErr.Error())
			fmt.Fprintln(os.Stderr, "Run 'regscraper --help' for usage.")
		case errors.Is(err, dates.ErrNoUnsavedDate):
			color.New(color.FgYellow).Fprintln(os.Stderr, "Every date in the retention window is already downloaded.")
		default:
			color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		}
		stop()
		os.Exit(1)
	}
}
