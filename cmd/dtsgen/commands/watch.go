package commands

import (
	"context"
	"sync"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/build"
	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/logger"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Build, then rebuild targets whose input changes",
		Long: `Build every target, then watch target inputs and dtsgen.toml.

A changed input rebuilds the targets reading it. A changed dtsgen.toml
reloads the configuration and rebuilds everything. Build failures are
reported and watching continues. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for {
				p, err := loadProject(cmd)
				if err != nil {
					return err
				}

				reload, err := watchSession(ctx, p)
				if err != nil || !reload {
					return err
				}
				pterm.Info.Println("Configuration changed, reloading")
			}
		},
	}
}

// watchSession builds everything and rebuilds on change until ctx is done
// (returns false) or the config file changes (returns true).
func watchSession(ctx context.Context, p *project) (bool, error) {
	targets := p.cfg.BuildTargets()
	runner := build.NewRunner(p.emitter, p.cfg.Build.Concurrency)

	var buildMu sync.Mutex
	rebuild := func(ctx context.Context, targets []dts.BuildTarget) {
		buildMu.Lock()
		defer buildMu.Unlock()

		report, err := runner.Run(ctx, targets)
		if err != nil {
			logger.Errorw("Rebuild failed", logger.FieldCount, len(targets), logger.FieldError, err)
			pterm.Error.Println(err.Error())
			return
		}
		pterm.Success.Printfln("Rebuilt %d declaration file(s) in %s", report.Built(), report.Duration.Round(time.Millisecond))
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	rebuild(sessionCtx, targets)

	files := build.InputPaths(p.root, targets)
	if p.cfg.File != "" {
		files = append(files, p.cfg.File)
	}

	reloadCh := make(chan struct{}, 1)
	watcher, err := build.NewWatcher(files, build.DefaultDebounce, func(changed []string) {
		for _, f := range changed {
			if f == p.cfg.File {
				select {
				case reloadCh <- struct{}{}:
				default:
				}
				return
			}
		}
		if affected := build.Affected(p.root, targets, changed); len(affected) > 0 {
			rebuild(sessionCtx, affected)
		}
	})
	if err != nil {
		return false, err
	}

	done := make(chan error, 1)
	go func() { done <- watcher.Run(sessionCtx) }()

	logger.Infow("Watching for changes", logger.FieldCount, len(files))
	pterm.Info.Printfln("Watching %d file(s), Ctrl-C to stop", len(files))

	select {
	case <-ctx.Done():
		return false, <-done
	case <-reloadCh:
		cancel()
		return true, <-done
	}
}
