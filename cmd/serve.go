package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gemtutor-ai/gemtutor/internal/api"
	"github.com/gemtutor-ai/gemtutor/internal/history"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve learner progress as a read-only HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8787)")
	return cmd
}

func runServe(addr string) error {
	cfg, dataDir, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	if addr == "" {
		addr = cfg.Serve.Addr
	}

	state := loadProfile(cfg, dataDir)
	archive, err := history.Open(history.DefaultDBPath(dataDir))
	if err != nil {
		return err
	}
	defer archive.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(state, archive).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := signalContext()
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		logging.L().Info("progress api listening", zap.String("addr", addr), zap.String("version", appVersion))
		fmt.Println("Listening on", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logging.L().Info("progress api stopped")
	return nil
}
