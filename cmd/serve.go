package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/ai"
	"github.com/spigell/resume-analyzer/internal/ai/gemini"
	"github.com/spigell/resume-analyzer/internal/logger"
	"github.com/spigell/resume-analyzer/internal/pipeline"
	"github.com/spigell/resume-analyzer/internal/secrets"
	"github.com/spigell/resume-analyzer/internal/server"
	"github.com/spigell/resume-analyzer/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis http api",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default is :8000)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve(_ *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	logger.Info("starting the resume-analyzer", zap.String("version", version))

	st := connectStore(ctx, logger, config.Store)
	defer func() {
		if err := st.Disconnect(); err != nil {
			logger.Error("closing the store", zap.Error(err))
		}
	}()

	analyzer, err := newAnalyzer(ctx, logger, config.Gemini, false)
	if err != nil {
		logger.Fatal("creating the analyzer", zap.Error(err))
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	p := pipeline.New(st, analyzer, logger)

	srv := &http.Server{
		Addr:              config.Server.Addr,
		Handler:           server.New(p, st, logger.Named("http")),
		ReadHeaderTimeout: config.Server.ReadTimeout,
		ReadTimeout:       config.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", config.Server.ShutdownTimeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	// The store is closed by the deferred Disconnect only after running analyses are recorded.
	if err := p.Wait(shutdownCtx); err != nil {
		logger.Error("analyses still running at shutdown, their records stay LLM_PROCESSING", zap.Error(err))
	}
}

// setup builds the logger and reads the config. Both are fatal on error.
func setup() (*zap.Logger, *Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	redacted := *config.Gemini
	if redacted.APIKey != "" {
		redacted.APIKey = "<redacted>"
	}
	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(Config{Server: config.Server, Store: config.Store, Gemini: &redacted}, "", "  ")
	l.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	return l, config
}

// connectStore opens the store. A failed connection is logged and the
// process continues; requests then answer with a configuration error.
func connectStore(ctx context.Context, l *zap.Logger, cfg *StoreConfig) *store.Store {
	st := store.New(store.Config{
		URL:        cfg.URL,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	}, l.Named("store"))

	if err := st.Connect(ctx); err != nil {
		l.Warn("store is unavailable, running degraded", zap.Error(err))
	}

	return st
}

func newAnalyzer(ctx context.Context, l *zap.Logger, cfg *GeminiConfig, sample bool) (ai.Analyzer, error) {
	if sample {
		l.Info("using the sample analyzer")
		return ai.Sample{}, nil
	}

	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil && !errors.Is(err, secrets.ErrNotConfigured) {
		return nil, err
	}

	analyzer, err := gemini.New(ctx, gemini.Config{
		APIKey:        key,
		Backend:       cfg.Backend,
		Project:       cfg.Project,
		Location:      cfg.Location,
		Model:         cfg.Model,
		FallbackModel: cfg.FallbackModel,
		RetryBackoff:  cfg.RetryBackoff,
		MaxLogLength:  cfg.MaxLogLength,
	}, l)
	if err != nil {
		return nil, err
	}

	return analyzer, nil
}
