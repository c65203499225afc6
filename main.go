package main

import (
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"

	"github.com/hertz-contrib/swagger-generate/idlunify/config"
	"github.com/hertz-contrib/swagger-generate/idlunify/generate"
	"github.com/hertz-contrib/swagger-generate/idlunify/loader"
	"github.com/hertz-contrib/swagger-generate/idlunify/parser"
)

func main() {
	// Create a new CLI app
	app := &cli.App{
		Name:      "idlunify",
		Usage:     "Parse Thrift or Protobuf IDL into one resolved, language agnostic document",
		ArgsUsage: "ENTRY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "TOML config file, defaults to " + config.DefaultConfigFile + " when present",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Directory the IDL files are loaded from",
			},
			&cli.StringSliceFlag{
				Name:    "pattern",
				Aliases: []string{"p"},
				Usage:   "Glob selecting files below root, repeatable",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Glob excluding files below root, repeatable",
			},
			&cli.StringSliceFlag{
				Name:    "search-path",
				Aliases: []string{"I"},
				Usage:   "Extra include search path, repeatable",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"t"},
				Usage:   "Output format: " + generate.FormatNames(),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path, stdout when empty",
			},
			&cli.BoolFlag{
				Name:  "cache",
				Usage: "Reuse parse results of unchanged files",
				Value: true,
			},
			&cli.BoolFlag{
				Name:  "ignore-go-tag",
				Usage: "Do not read go.tag annotations",
			},
			&cli.BoolFlag{
				Name:  "ignore-go-tag-dash",
				Usage: "Keep fields tagged json:\"-\"",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Parse again whenever a selected file changes",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve prometheus metrics on this address while watching",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: run,
	}

	// Run the app
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// loadConfig reads the config file, then lets explicitly set flags win
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	path := c.String("config")
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			path = config.DefaultConfigFile
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if c.IsSet("root") {
		cfg.Root = c.String("root")
	}
	if c.IsSet("pattern") {
		cfg.Patterns = c.StringSlice("pattern")
	}
	if c.IsSet("exclude") {
		cfg.Exclude = c.StringSlice("exclude")
	}
	if c.IsSet("search-path") {
		cfg.Parse.SearchPaths = c.StringSlice("search-path")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	if c.IsSet("output") {
		cfg.Output = c.String("output")
	}
	if c.IsSet("cache") {
		cfg.Parse.Cache = c.Bool("cache")
	}
	if c.IsSet("ignore-go-tag") {
		cfg.Parse.IgnoreGoTag = c.Bool("ignore-go-tag")
	}
	if c.IsSet("ignore-go-tag-dash") {
		cfg.Parse.IgnoreGoTagDash = c.Bool("ignore-go-tag-dash")
	}
	if cfg.Output != "" && !c.IsSet("format") {
		// Automatically determine the format from the output extension
		switch ext := strings.TrimPrefix(filepath.Ext(cfg.Output), "."); ext {
		case "yaml", "yml":
			cfg.Format = string(generate.FormatYAML)
		case "thrift", "proto", "json":
			cfg.Format = ext
		}
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	setupLogger(c.Bool("verbose"))

	if c.NArg() < 1 {
		return errors.New("please provide the entry IDL file")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	l, err := loader.New(cfg.Root, cfg.Patterns, cfg.Exclude)
	if err != nil {
		return err
	}
	entry := entryKey(l, c.Args().First())
	format, err := generate.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	opts := parser.Options{
		Cache:           cfg.Parse.Cache,
		IgnoreGoTag:     cfg.Parse.IgnoreGoTag,
		IgnoreGoTagDash: cfg.Parse.IgnoreGoTagDash,
		SearchPaths:     cfg.Parse.SearchPaths,
	}
	p := parser.New(parser.WithLogger(slog.Default()))

	build := func() error {
		files, err := l.Load()
		if err != nil {
			return fmt.Errorf("failed to load files: %w", err)
		}
		doc, err := p.Parse(entry, opts, files)
		if err != nil {
			return err
		}
		out, err := generate.Generate(doc, format)
		if err != nil {
			return err
		}
		return writeOutput(cfg.Output, out)
	}

	if !c.Bool("watch") {
		return build()
	}
	return watch(c, cfg, l, build)
}

func watch(c *cli.Context, cfg *config.Config, l *loader.Loader, build func() error) error {
	if addr := c.String("metrics-addr"); addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
	}

	if err := build(); err != nil {
		slog.Error("parse failed", "error", err)
	}

	w, err := loader.NewWatcher(l, cfg.Watch.Debounce, func(paths []string) {
		slog.Info("files changed", "paths", paths)
		if err := build(); err != nil {
			slog.Error("parse failed", "error", err)
			return
		}
		slog.Info("parse succeeded", "output", cfg.Output)
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			slog.Warn("error closing watcher", "error", err)
		}
	}()
	if err := w.Watch(); err != nil {
		return err
	}
	slog.Info("watching", "root", cfg.Root)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	return nil
}

// entryKey maps the entry argument to its key in the loaded file map. An
// existing path below the root is made relative to it, anything else is
// taken as already relative.
func entryKey(l *loader.Loader, arg string) string {
	if _, err := os.Stat(arg); err != nil {
		return filepath.ToSlash(arg)
	}
	rel, err := l.Rel(arg)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(arg)
	}
	return rel
}

func writeOutput(path string, out []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(out, '\n'))
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("Error closing file: %v", err)
		}
	}()
	if _, err := file.Write(out); err != nil {
		return fmt.Errorf("error writing to file: %w", err)
	}
	return nil
}
