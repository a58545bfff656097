package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/reelbase/reelbase-api/internal/client/apiclient"
	"github.com/reelbase/reelbase-api/internal/client/cli"
	"github.com/reelbase/reelbase-api/internal/client/session"
	"github.com/reelbase/reelbase-api/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	apiURL := flag.String("api", envOr("REELBASE_API_URL", "http://localhost:5000"), "Reelbase API base URL")
	dir := flag.String("session-dir", "", "directory holding the cached session (default: user config dir)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Pretty: true, Output: os.Stderr})

	if *dir == "" {
		d, err := session.DefaultDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		*dir = d
	}

	client, err := apiclient.New(*apiURL, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp(client, session.NewGuard(*dir, logger.Component("session")), os.Stdout, os.Stderr)
	if err := app.Run(ctx, flag.Args()); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
