// Package main is the entry point for the switchyard request dispatcher.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dshills/switchyard/internal/config"
	"github.com/dshills/switchyard/internal/dispatcher"
	"github.com/dshills/switchyard/internal/dispatcher/execctx"
	"github.com/dshills/switchyard/internal/server"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	configPath string
	routes     string
	addr       string
	logLevel   string
	watch      bool
	list       bool
	resolve    string
}

func main() {
	os.Exit(run())
}

func run() int {
	opts, set := parseFlags()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	applyFlags(cfg, opts, set)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration:\n%v\n", err)
		return 1
	}

	logger := cfg.Logging.NewLogger(os.Stderr)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		if errors.Is(err, dispatcher.ErrActionConflict) {
			fmt.Fprintf(os.Stderr, "Error: conflicting routes: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: failed to load routes: %v\n", err)
		}
		return 1
	}

	switch {
	case opts.list:
		fmt.Print(srv.Dispatcher().Describe())
		return 0
	case set["resolve"]:
		return resolve(srv.Dispatcher(), opts.resolve)
	}

	// Handle signals for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		select {
		case sig := <-signals:
			logger.Info("received signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// resolve dispatches a single path and prints what ran.
func resolve(d *dispatcher.Dispatcher, path string) int {
	path = strings.TrimPrefix(path, "/")
	rawPath, rawQuery, _ := strings.Cut(path, "?")

	req := execctx.NewRequest("GET", rawPath)
	if rawQuery != "" {
		u, err := url.ParseQuery(rawQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		req.Query = u
	}

	rec := execctx.NewRecorder()
	ctx := d.NewContext(context.Background(), req, rec)
	d.PrepareAction(ctx)

	a := ctx.Action()
	if a == nil {
		fmt.Printf("no action matches %q\n", path)
		return 1
	}
	fmt.Printf("action:   %s\n", a.Reverse())
	fmt.Printf("match:    %q\n", req.Match)
	fmt.Printf("args:     %q\n", req.Args)
	if len(req.Captures) > 0 {
		fmt.Printf("captures: %q\n", req.Captures)
	}

	ok := d.Dispatch(ctx)
	fmt.Printf("status:   %d\n", rec.Code)
	fmt.Printf("body:     %q\n", rec.String())
	for _, err := range ctx.Errors() {
		fmt.Printf("error:    %v\n", err)
	}
	if !ok {
		return 1
	}
	return 0
}

func parseFlags() (options, map[string]bool) {
	var opts options
	var showVersion bool
	var showHelp bool

	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&opts.routes, "routes", "", "Path to route manifest")
	flag.StringVar(&opts.routes, "r", "", "Path to route manifest (shorthand)")
	flag.StringVar(&opts.addr, "addr", "", "Listen address")
	flag.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&opts.watch, "watch", false, "Reload routes when the manifest changes")
	flag.BoolVar(&opts.list, "list", false, "Print the loaded routes and exit")
	flag.StringVar(&opts.resolve, "resolve", "", "Dispatch a single path, print the outcome and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Switchyard - request dispatcher\n\n")
		fmt.Fprintf(os.Stderr, "Usage: switchyard [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment:\n")
		for _, name := range config.EnvVars() {
			fmt.Fprintf(os.Stderr, "  %s\n", name)
		}
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  switchyard -r routes.yaml -watch     Serve and hot reload\n")
		fmt.Fprintf(os.Stderr, "  switchyard -r routes.yaml -list      Show the route table\n")
		fmt.Fprintf(os.Stderr, "  switchyard -resolve users/view/42    Dispatch one path\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Switchyard %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return opts, set
}

// applyFlags overrides configuration with the flags given on the command line.
func applyFlags(cfg *config.Config, opts options, set map[string]bool) {
	if set["routes"] || set["r"] {
		cfg.Routes.File = opts.routes
	}
	if set["addr"] {
		cfg.Server.Addr = opts.addr
	}
	if set["log-level"] {
		cfg.Logging.Level = opts.logLevel
	}
	if set["watch"] {
		cfg.Routes.Watch = opts.watch
	}
}
