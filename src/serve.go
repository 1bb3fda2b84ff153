package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gourmet/src/db"
	"gourmet/src/handlers"
	"gourmet/src/i18n"
	"gourmet/src/index"
	"gourmet/src/render"
	"gourmet/src/session"
	"gourmet/src/state"
	"gourmet/src/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the map and list pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func openCredentials() (session.KV, func(), error) {
	if cfg.Credentials == "" {
		logger.Warn("no credentials store configured, accounts live in memory")
		return session.NewMemoryKV(), func() {}, nil
	}
	kv, err := session.OpenSQLite(cfg.Credentials)
	if err != nil {
		return nil, nil, err
	}
	return kv, func() { _ = kv.Close() }, nil
}

func serve(ctx context.Context) error {
	if err := cfg.RequireSigningKey(); err != nil {
		return err
	}

	opener := &db.Opener{ElasticURL: cfg.ElasticURL, Logger: logger}
	shops, err := opener.Open(cfg.Shops)
	if err != nil {
		return fmt.Errorf("shops feed: %w", err)
	}
	reviews, err := opener.Open(cfg.Reviews)
	if err != nil {
		return fmt.Errorf("reviews feed: %w", err)
	}
	catalog := index.NewCatalog(shops, reviews, logger)
	catalog.Start(ctx)

	kv, closeKV, err := openCredentials()
	if err != nil {
		return err
	}
	defer closeKV()
	users := session.NewService(session.NewKVRepository(kv), logger)
	if err := users.Seed(ctx, cfg.SeedUsers); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	msgs, err := i18n.Load(cfg.Lang, []string{"ja", "en"})
	if err != nil {
		return err
	}
	html, err := render.NewHTML(msgs)
	if err != nil {
		return err
	}
	tokens := token.NewIssuer([]byte(cfg.SigningKey), cfg.TokenTTL, logger)
	tokens.SecureCookies(cfg.SecureCookies)
	store := state.NewStore(logger)

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: handlers.New(handlers.Deps{
			Catalog: catalog,
			Store:   store,
			Users:   users,
			Tokens:  tokens,
			HTML:    html,
			Msgs:    msgs,
			Logger:  logger,
			Images:  cfg.Images,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go sweepSessions(ctx, store, cfg.SessionIdle)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}

func sweepSessions(ctx context.Context, store *state.Store, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 4)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			store.Sweep(idle)
		}
	}
}
