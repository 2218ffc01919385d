package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/agentworkforce/notecheck/internal/config"
	"github.com/agentworkforce/notecheck/internal/notestore"
	"github.com/agentworkforce/notecheck/internal/snapshot"
	"github.com/agentworkforce/notecheck/internal/verify"
)

type rootFlags struct {
	configDir string
	verbose   bool
	assumeYes bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "notecheck",
		Short: "Verify note metadata against the last saved snapshot",
		Long: `notecheck lists the metadata of every note in the account and compares it
with the snapshot saved by the previous run. It reports new, removed and
renamed notes and notes whose content or largest attachment shrank, then
asks before saving the new snapshot.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if flags.verbose {
				level = slog.LevelDebug
			}
			setupLogger(cmd.ErrOrStderr(), level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, flags)
		},
	}
	cmd.PersistentFlags().StringVar(&flags.configDir, "config", "", "config directory (default $NOTECHECK_CONFIG_DIR or the user config dir)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.Flags().BoolVarP(&flags.assumeYes, "yes", "y", false, "save the new snapshot without prompting")

	cmd.AddCommand(newInitCmd(flags))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func setupLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runCheck(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := config.Load(flags.configDir)
	if err != nil {
		return err
	}
	logger := slog.Default()
	if !flags.verbose {
		level, err := config.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = setupLogger(cmd.ErrOrStderr(), level)
	}

	token, err := config.ReadCredentials(cfg.CredentialsFile)
	if err != nil {
		return err
	}

	backend, err := snapshot.BuildBackendFromDSN(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("snapshot backend: %w", err)
	}
	snapshots := snapshot.NewStore(backend, logger)
	defer func() {
		if err := snapshots.Close(); err != nil {
			logger.Warn("close snapshot backend", "error", err)
		}
	}()

	client := notestore.NewHTTPClient(notestore.HTTPClientOptions{
		BaseURL:           cfg.BaseURL,
		Token:             token,
		HTTPClient:        &http.Client{Timeout: cfg.HTTPTimeout},
		UserAgent:         "notecheck/" + version,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	store := notestore.RateLimited(client, notestore.RetryOptions{
		MaxRetries: cfg.RateLimit.MaxRetries,
		MaxWait:    cfg.RateLimit.MaxWait,
		Logger:     logger,
	})

	verifier, err := verify.New(verify.Options{
		Store:     store,
		Snapshots: snapshots,
		In:        cmd.InOrStdin(),
		Out:       cmd.OutOrStdout(),
		Logger:    logger,
		PageSize:  cfg.PageSize,
		AssumeYes: flags.assumeYes,
		SyncState: cfg.SyncState,
	})
	if err != nil {
		return err
	}
	logger.Debug("starting verification", "base_url", cfg.BaseURL, "snapshot", cfg.Snapshot)
	_, err = verifier.Run(cmd.Context())
	return err
}
