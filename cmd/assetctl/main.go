package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mwantia/assetdb"
	"github.com/mwantia/assetdb/cmd"
	"github.com/mwantia/assetdb/cmd/builtin"
	"github.com/mwantia/assetdb/config"
	"github.com/mwantia/assetdb/log"
	"github.com/mwantia/assetdb/watch"
)

var globalFlags = &cmd.CommandFlagSet{
	Flags: map[string]*cmd.CommandFlag{
		"config": {
			Name:        "config",
			Short:       "c",
			Type:        "string",
			Description: "Path of a TOML or YAML config file",
		},
		"project": {
			Name:        "project",
			Short:       "p",
			Type:        "string",
			Description: "Project folder, overrides the config",
		},
		"log-level": {
			Name:        "log-level",
			Short:       "l",
			Type:        "string",
			Description: "Log level (debug, info, warn, error)",
		},
		"help": {
			Name:        "help",
			Short:       "h",
			Type:        "bool",
			Description: "Show usage",
		},
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code, err := run(ctx, os.Args[1:], os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "assetctl: %v\n", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, argv []string, stdout io.Writer) (int, error) {
	split := splitGlobal(argv)
	global, err := cmd.NewParser(globalFlags).Parse(argv[:split])
	if err != nil {
		return 2, err
	}
	rest := argv[split:]

	cfg, err := config.Load(global.String("config"))
	if err != nil {
		return 1, err
	}
	if project := global.String("project"); project != "" {
		cfg.Project = project
	}
	if level := global.String("log-level"); level != "" {
		if _, err := log.Parse(level); err != nil {
			return 2, err
		}
		cfg.LogLevel = level
	}

	logger := cfg.Logger("assetctl", false)

	reg, err := cfg.Open(ctx, assetdb.WithLogger(logger))
	if err != nil {
		return 1, fmt.Errorf("failed to open project '%s': %w", cfg.Project, err)
	}
	defer reg.Close(context.Background())

	manager := cmd.NewManager(reg)
	if err := builtin.Register(manager); err != nil {
		return 1, err
	}

	if global.Bool("help") || len(rest) == 0 {
		usage(stdout, manager)
		return 0, nil
	}

	if rest[0] == "watch" {
		if cfg.ReadOnly {
			return 2, fmt.Errorf("cannot watch a read-only project")
		}
		return watchProject(ctx, cfg, reg, logger, stdout)
	}

	// every other command works on a populated registry
	switch {
	case cfg.ReadOnly:
		reg.LoadLibrary(ctx)
	case rest[0] != "scan" && rest[0] != "library":
		reg.ReconcileAll(ctx)
	}
	return manager.Execute(ctx, stdout, rest...)
}

// splitGlobal returns the index of the first argument that is not a global
// flag or the value of one.
func splitGlobal(argv []string) int {
	i := 0
	for i < len(argv) && strings.HasPrefix(argv[i], "-") {
		arg := strings.TrimLeft(argv[i], "-")
		i++
		if strings.Contains(arg, "=") {
			continue
		}
		for _, flag := range globalFlags.Flags {
			if (flag.Name == arg || flag.Short == arg) && flag.Type != "bool" {
				i++
				break
			}
		}
	}
	return min(i, len(argv))
}

// watchProject reconciles once and then again for every change reported by
// the watcher, until ctx is cancelled.
func watchProject(ctx context.Context, cfg *config.Config, reg *assetdb.Registry, logger *log.Logger, stdout io.Writer) (int, error) {
	fmt.Fprintln(stdout, reg.ReconcileAll(ctx).String())

	w, err := watch.New(cfg.Project, watch.WithLayout(cfg.Layout), watch.WithLogger(logger))
	if err != nil {
		return 1, err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
				return 1, err
			}
			return 0, nil
		case err := <-errCh:
			return 1, err
		case event := <-w.Events():
			var report *assetdb.Report
			switch event.Kind {
			case watch.AssetsChanged:
				report = reg.Reconcile(ctx, event.Path)
			case watch.ScriptsChanged:
				report = reg.ReloadScripts(ctx)
			}
			if report != nil && report.Changed() {
				fmt.Fprintf(stdout, "%s %s: %s\n", event.Kind, event.Path, report)
			}
		}
	}
}

func usage(w io.Writer, manager *cmd.Manager) {
	fmt.Fprintln(w, "usage: assetctl [-c config] [-p project] [-l level] <command> [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	manager.Help(w)
	fmt.Fprintf(w, "  %-10s %s\n", "watch", "Reconcile continuously while assets and headers change")
}
