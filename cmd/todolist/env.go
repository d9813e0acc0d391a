package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ldi/todolist/internal/config"
	"github.com/ldi/todolist/internal/db"
	"github.com/ldi/todolist/internal/logging"
	"github.com/ldi/todolist/internal/store"
	"github.com/ldi/todolist/internal/todo"
	"github.com/sirupsen/logrus"
)

// env is everything a command needs: settings, a logger and the task store.
type env struct {
	cfg     *config.Config
	log     *logging.Logger
	store   *store.TaskStore
	closers []func() error
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load(dataDir, configPath)
	if err != nil {
		return nil, err
	}
	if backend != "" {
		cfg.Storage.Backend = backend
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log, err := logging.New(logging.Options{
		Level:      level,
		Format:     cfg.Log.Format,
		File:       cfg.LogFile(),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
		Output:     stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	e := &env{cfg: cfg, log: log}
	e.closers = append(e.closers, log.Close)

	kv, err := e.openKV(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.store = store.NewTaskStore(kv)
	if cfg.Storage.AutoSnapshot {
		e.store.EnableAutoSnapshot(cfg.SnapshotPath(), log)
	}
	log.WithField("backend", cfg.Storage.Backend).Debug("store opened")
	return e, nil
}

func (e *env) openKV(ctx context.Context) (store.KV, error) {
	cfg := e.cfg
	kv, err := e.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Remote() {
		return kv, nil
	}
	return store.NewBreakerKV(kv, store.BreakerSettings{
		Name:        cfg.Storage.Backend,
		MaxFailures: cfg.Breaker.MaxFailures,
		Timeout:     cfg.Breaker.Timeout,
	}, e.log), nil
}

func (e *env) openBackend(ctx context.Context) (store.KV, error) {
	cfg := e.cfg
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		database, err := db.Open(cfg.StoragePath())
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, database.Close)
		if err := database.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return database, nil

	case config.BackendMySQL:
		database, err := db.OpenMySQL(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, database.Close)
		if err := database.Init(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return database, nil

	case config.BackendMongo:
		m, err := store.OpenMongo(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, cfg.Storage.MongoCollection)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() error { return m.Close(context.Background()) })
		return m, nil

	case config.BackendFile:
		return store.OpenFileKV(cfg.StoragePath(), e.log)

	case config.BackendMemory:
		return store.NewMemoryKV(), nil
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			fmt.Fprintf(stderr, "Error closing: %v\n", err)
		}
	}
	e.closers = nil
}

// controller loads the stored tasks into a fresh controller. A nil prompter
// means notices go to stderr and confirmation is asked on stdin. A payload
// that fails validation loads as empty; any other read error is returned so
// the command does not overwrite data it could not see.
func (e *env) controller(ctx context.Context, p todo.Prompter) (*todo.Controller, *todo.Recorder, error) {
	if p == nil {
		p = newPrompter(false)
	}
	rec := &todo.Recorder{}
	ctrl := todo.NewController(e.store,
		todo.WithRenderer(rec),
		todo.WithPrompter(p),
		todo.WithLogger(logrus.FieldLogger(e.log)),
	)
	if err := ctrl.Load(ctx); err != nil && !errors.Is(err, store.ErrMalformed) {
		return nil, nil, err
	}
	return ctrl, rec, nil
}

// prompter writes notices to stderr and asks for confirmation on stdin.
type prompter struct {
	assumeYes bool
}

func newPrompter(assumeYes bool) *prompter {
	return &prompter{assumeYes: assumeYes}
}

func (p *prompter) Alert(msg string) {
	fmt.Fprintln(stderr, msg)
}

func (p *prompter) Confirm(msg string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(stdout, "%s [y/N] ", msg)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
