// councild is the LLM Council backend daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nexusspace/llm-council/internal/config"
	"github.com/nexusspace/llm-council/internal/council"
	"github.com/nexusspace/llm-council/internal/fetcher"
	"github.com/nexusspace/llm-council/internal/llm"
	"github.com/nexusspace/llm-council/internal/reader"
	"github.com/nexusspace/llm-council/internal/server"
	"github.com/nexusspace/llm-council/internal/storage"
	"github.com/nexusspace/llm-council/internal/webfetch"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "councild",
		Short:        "LLM Council backend: fan a prompt out to a panel of models and synthesize one answer",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(serveCmd())
	root.AddCommand(queryCmd())
	return root
}

func serveCmd() *cobra.Command {
	var port int
	var dataDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.ServerPort = port
			}
			if dataDir != "" {
				cfg.DataDir = dataDir
			}

			store, settings, closer, err := buildStorage(cfg)
			if err != nil {
				return err
			}
			if closer != nil {
				defer closer()
			}

			selector := llm.NewSelector(cfg, settings)
			c := council.New(cfg, selector)

			srv := server.New(
				cfg,
				store,
				settings,
				c,
				reader.New(cfg),
				fetcher.New(cfg.TempCloneDir),
				webfetch.New(),
			)
			return srv.Run()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides SERVER_PORT)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "conversation data directory (overrides DATA_DIR)")
	return cmd
}

// queryCmd is a manual probe of the active provider: one model, one prompt,
// answer on stdout.
func queryCmd() *cobra.Command {
	var model string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "query [prompt]",
		Short: "Send a one-shot prompt to a single model",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if model == "" {
				model = cfg.ChairmanModel
			}

			client, err := llm.NewClient(cfg.Provider, cfg)
			if err != nil {
				return err
			}

			prompt := strings.Join(args, " ")
			messages := []llm.Message{{Role: llm.RoleUser, Content: prompt}}

			result, err := client.QueryModel(context.Background(), model, messages, timeout)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}
			fmt.Fprintln(os.Stdout, result.Content)
			return nil
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model identifier (defaults to the chairman model)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-call timeout (defaults to API_TIMEOUT_SECONDS)")
	return cmd
}

// buildStorage constructs the configured storage backend. Both backends
// implement the settings store, so the provider setting survives restarts
// either way.
func buildStorage(cfg *config.Config) (storage.Store, storage.SettingsStore, func() error, error) {
	switch cfg.StorageBackend {
	case config.StorageFilesystem:
		fs := storage.NewFilesystem(cfg.DataDir)
		return fs, fs, nil, nil
	case config.StorageSQLite:
		db, err := storage.OpenSQLite(filepath.Join(cfg.DataDir, "council.db"))
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, db.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown storage backend: %q", cfg.StorageBackend)
	}
}
