// Package main provides the epubhl command line entrypoint.
//
// epubhl rewrites an EPUB so its Python code blocks are syntax-highlighted
// ahead of time, with no JavaScript left for the reading system to run:
//
//	epubhl book.epub book-highlighted.epub --style friendly
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/euforicio/epubhl/internal/buildinfo"
	"github.com/euforicio/epubhl/internal/config"
	"github.com/euforicio/epubhl/internal/highlight"
	"github.com/euforicio/epubhl/internal/pipeline"
)

const usageLine = "usage: epubhl <input.epub> <output.epub> [flags]"

func main() {
	cfg := config.Default()
	config.ApplyEnvOverrides(&cfg)

	flags := pflag.NewFlagSet("epubhl", pflag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprintln(os.Stderr, usageLine)
		fmt.Fprintln(os.Stderr, flags.FlagUsages())
	}
	config.RegisterFlags(flags, &cfg)
	versionFlag := flags.Bool("version", false, "print version information and exit")
	listStyles := flags.Bool("list-styles", false, "list known highlight styles and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "epubhl:", err)
		os.Exit(2)
	}
	if *versionFlag {
		fmt.Println(buildinfo.Summary())
		os.Exit(0)
	}
	if *listStyles {
		for _, name := range highlight.Styles() {
			fmt.Println(name)
		}
		os.Exit(0)
	}

	args := flags.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, usageLine)
		os.Exit(2)
	}
	cfg.Input, cfg.Output = args[0], args[1]
	if err := config.Finalize(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "epubhl:", err)
		os.Exit(2)
	}

	logLevel := slog.LevelWarn
	if cfg.Verbose {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	logger = logger.With("app", "epubhl")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Watch {
		err := pipeline.Watch(ctx, cfg, logger)
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "epubhl:", err)
			os.Exit(1)
		}
		return
	}

	res, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "epubhl:", err)
		os.Exit(1)
	}
	if res.Blocks == 0 {
		fmt.Printf("no Python code blocks found -> %s\n", cfg.Output)
		return
	}
	fmt.Printf("highlighted %d block(s) in %d document(s) -> %s\n", res.Blocks, res.Documents, cfg.Output)
}
