package main

import (
	"flag"
	"fmt"
	"os"

	"trek/internal/cli"
	"trek/internal/config"
	"trek/internal/storage"
	"trek/internal/store"
	"trek/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root flags (apply to every subcommand)
	configPath := flag.String("config", "", "config file path")
	noColor := flag.Bool("no-color", false, "disable colored output")
	forceColor := flag.Bool("color", false, "force colored output")
	yes := flag.Bool("yes", false, "answer confirmation prompts with yes")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ui.SetTheme(cfg.Theme)
	ui.SetColorForcing(*forceColor, *noColor)

	adapter, err := storage.Open(storage.Config{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		Key:    cfg.Storage.Key,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	st, err := store.Open(adapter, store.Options{
		Statuses:    cfg.Store.Statuses,
		InsertFront: cfg.InsertFront(),
		OnCorrupt:   cfg.Storage.OnCorrupt,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer st.Close()

	// Hand the remaining args to the CLI runner.
	args := flag.Args()
	if len(args) == 0 {
		cli.PrintHelp(os.Stdout)
		return 2
	}

	code := cli.Run(args, cli.Options{
		Store:  st,
		Config: cfg,
		Yes:    *yes,
	})
	if code != 0 {
		fmt.Fprintln(os.Stderr)
	}
	return code
}
