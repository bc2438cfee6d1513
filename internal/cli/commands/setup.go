// Package commands implements the provgate subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/provgate/internal/cli/output"
	"github.com/leapstack-labs/provgate/internal/config"
	"github.com/leapstack-labs/provgate/internal/registry"
	"github.com/leapstack-labs/provgate/internal/state"
	"github.com/leapstack-labs/provgate/pkg/core"
	"github.com/leapstack-labs/provgate/pkg/gate"
)

// runtimeKey stores the loaded runtime in the command context.
type runtimeKey struct{}

// Runtime carries the loaded configuration and logger into commands.
type Runtime struct {
	Cfg    *config.Config
	Logger *slog.Logger
}

// WithRuntime attaches the runtime to a context. Called by the root command
// after configuration loading.
func WithRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, runtimeKey{}, &Runtime{Cfg: cfg, Logger: logger})
}

// getRuntime returns the runtime from the command context, falling back to
// defaults when the root command did not run (direct command construction
// in tests).
func getRuntime(cmd *cobra.Command) *Runtime {
	if rt, ok := cmd.Context().Value(runtimeKey{}).(*Runtime); ok {
		return rt
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		cfg = &config.Config{
			Store:       config.StoreConfig{Backend: config.BackendSQLite, Path: config.DefaultStorePath},
			Gate:        gate.DefaultConfig(),
			LabelColumn: "label",
			LogLevel:    "info",
		}
	}
	return &Runtime{Cfg: cfg, Logger: slog.New(slog.DiscardHandler)}
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a renderer bound to the
// command's writers.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	rt := getRuntime(cmd)
	mode := output.Mode(rt.Cfg.Output)
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		mode = output.Mode(f.Value.String())
	}
	return &CommandContext{
		Cfg:      rt.Cfg,
		Logger:   rt.Logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// governanceStore is the store surface commands need: the persistence
// interface plus model metadata access.
type governanceStore interface {
	core.Store
	registry.MetadataStore
}

// OpenStore opens and migrates the configured governance store.
// The returned cleanup function closes it.
func OpenStore(cfg *config.Config) (governanceStore, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		s := state.NewPostgresStore()
		if err := s.Open(cfg.Store.DSN); err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil

	default:
		if dir := filepath.Dir(cfg.Store.Path); dir != "." && dir != "" && cfg.Store.Path != ":memory:" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("create store directory: %w", err)
			}
		}
		s := state.NewSQLiteStore()
		if err := s.Open(cfg.Store.Path); err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, nil, fmt.Errorf("migrate sqlite store: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	}
}

// NewGate wires a gate from an opened store and the configured thresholds.
func NewGate(cfg *config.Config, store governanceStore, logger *slog.Logger) (*gate.Gate, error) {
	return gate.New(store, registry.NewStoreRegistry(store), cfg.Gate, logger)
}
