package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tripsheet/config"
	"tripsheet/db"
	"tripsheet/mq"
	"tripsheet/notify"
	"tripsheet/rdx"
	"tripsheet/render"
	"tripsheet/utils"
	"tripsheet/workflow"
)

// app is everything a command needs once configuration has been loaded.
type app struct {
	cfg     *config.Config
	log     *logrus.Entry
	deps    workflow.Deps
	rdb     *redis.Client
	closers []func() error
}

func (a *app) close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type opener func(ctx context.Context, configPath string, stderr io.Writer) (*app, error)

// openApp wires the configured store, renderer and optional Redis.
func openApp(ctx context.Context, configPath string, stderr io.Writer) (*app, error) {
	if configPath != "" {
		if err := os.Setenv("CONFIG_PATH", configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format)
	logger.SetOutput(stderr)
	log := logrus.NewEntry(logger).WithField("component", "tripctl")

	a := &app{cfg: cfg, log: log}
	repo, err := db.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error { return repo.Close(context.Background()) })

	renderer, err := render.NewPDF(render.OptionsFromConfig(cfg.Render))
	if err != nil {
		_ = a.close()
		return nil, fmt.Errorf("load pdf assets: %w", err)
	}

	a.deps = workflow.Deps{
		Repo:       repo,
		Renderer:   renderer,
		Log:        log,
		ConfirmTTL: cfg.Workflow.ConfirmTTL,
	}
	if cfg.Redis.Enabled() {
		rdb, err := rdx.NewClient(ctx, cfg.Redis)
		if err != nil {
			_ = a.close()
			return nil, err
		}
		a.rdb = rdb
		a.closers = append(a.closers, rdb.Close)
		a.deps.Events = mq.NewEmitter(rdb, cfg.Redis.EventsChannel, log)
	}
	return a, nil
}

// withTerminal returns deps that report to out.
func (a *app) withTerminal(out io.Writer) workflow.Deps {
	d := a.deps
	d.Notifier = notify.NewConsole(out)
	d.Navigator = navPrinter{w: out}
	return d
}

// navPrinter shows where a GUI would have navigated.
type navPrinter struct{ w io.Writer }

func (n navPrinter) Navigate(d workflow.Destination) {
	fmt.Fprintf(n.w, "→ %s\n", d.Path())
}
