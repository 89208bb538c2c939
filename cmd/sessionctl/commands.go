package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/karsaku/session-gate/internal/config"
	"github.com/karsaku/session-gate/internal/domain"
	"github.com/karsaku/session-gate/internal/observability"
	"github.com/karsaku/session-gate/internal/securestore"
	"github.com/karsaku/session-gate/internal/session"
)

var storeBackend string

var rootCmd = &cobra.Command{
	Use:           "sessionctl",
	Short:         "Inspect and reset the persisted Karsaku session",
	SilenceUsage:  true,
	SilenceErrors: false,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Bootstrap the session and print its state and screen group",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(m *session.Manager) error {
			return printState(cmd.OutOrStdout(), m)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the persisted session keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withManager(cmd.Context(), func(m *session.Manager) error {
			if err := m.SignOut(cmd.Context()); err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), m)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "secret store backend (overrides SECRET_STORE_BACKEND)")
	rootCmd.AddCommand(statusCmd, logoutCmd)
}

// withManager opens the configured store and runs fn against a bootstrapped
// manager. The CLI skips the splash hold.
func withManager(ctx context.Context, fn func(*session.Manager) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if storeBackend != "" {
		cfg.SecretStore.Backend = storeBackend
	}

	logger, err := observability.NewLogger(config.LoggerConfig{Level: "warn"}, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	store, err := securestore.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open secret store: %w", err)
	}
	defer store.Close()

	manager := session.NewManager(store.Store, session.Options{Logger: logger})
	manager.Bootstrap(ctx)
	logger.Debug("session loaded", zap.String("backend", cfg.SecretStore.Backend))
	return fn(manager)
}

type statusOutput struct {
	State       domain.SessionState `json:"state"`
	ScreenGroup domain.ScreenGroup  `json:"screen_group"`
	EntryScreen session.Screen      `json:"entry_screen"`
}

func printState(w io.Writer, m *session.Manager) error {
	group := m.ScreenGroup()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(statusOutput{
		State:       m.State(),
		ScreenGroup: group,
		EntryScreen: session.EntryScreen(group),
	})
}
