package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/five82/satsrate/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override satsrate config path (optional)")
	prefsPath := flag.String("prefs", "", "override prefs path (optional)")
	seed := flag.String("link", "", "share link or query to open with, e.g. jpy=1000 (optional)")
	serve := flag.Bool("serve", false, "run the HTTP host instead of the TUI")
	host := flag.String("host", "", "base URL of a running host for -check-update/-skip-waiting")
	checkUpdate := flag.Bool("check-update", false, "ask a running host whether a new version is waiting")
	skipWaiting := flag.Bool("skip-waiting", false, "activate the waiting version on a running host")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "satsrate: load .env: %v\n", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		PrefsPath:  *prefsPath,
		Seed:       *seed,
		Host:       *host,
	}

	var err error
	switch {
	case *checkUpdate:
		var status string
		if status, err = app.CheckUpdate(ctx, opts); err == nil {
			fmt.Println(status)
		}
	case *skipWaiting:
		var version string
		if version, err = app.SkipWaiting(ctx, opts); err == nil {
			fmt.Printf("active version: %s\n", version)
		}
	case *serve:
		err = app.Serve(ctx, opts)
	default:
		err = app.Run(ctx, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "satsrate: %v\n", err)
		return 1
	}
	return 0
}
