package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/logger"
	"github.com/jonathan/interview-coach/internal/server"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview API server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides PORT env)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	log, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	sessions, users, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := buildLLMClient(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	generator := interview.NewGenerator(client, rng, log)
	evaluator := interview.NewEvaluator(client, log)
	engine := interview.NewEngine(sessions, generator, evaluator, log)

	srv, err := server.New(server.Deps{
		Engine:    engine,
		Users:     users,
		JWTConfig: jwtConfig,
		Password:  passwordConfig,
		RateLimit: middleware.DefaultRateLimitConfig(),
		Log:       log,
		Port:      cfg.Port,
	})
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

// buildStores selects PostgreSQL when DATABASE_URL is set, otherwise the
// in-memory store for local runs.
func buildStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.SessionStore, store.UserStore, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, using in-memory store; sessions are lost on restart")
		mem := store.NewMemory()
		return mem, mem, func() {}, nil
	}

	pg, err := store.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	return pg, pg, pg.Close, nil
}

// buildLLMClient returns the Gemini client, or an always-failing client
// when no API key is configured so the deterministic fallbacks serve all
// traffic.
func buildLLMClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (llm.Client, error) {
	if cfg.GeminiAPIKey == "" {
		log.Warn("GEMINI_API_KEY not set, all questions and evaluations use deterministic fallbacks")
		return llm.Unavailable(), nil
	}

	llmConfig := llm.DefaultConfig()
	if cfg.Model != "" {
		llmConfig = llmConfig.WithModel(cfg.Model)
	}
	return llm.NewClient(ctx, llmConfig, cfg.GeminiAPIKey)
}
