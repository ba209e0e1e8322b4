package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stemsi/exstem-results/internal/config"
	"github.com/stemsi/exstem-results/internal/database"
	"github.com/stemsi/exstem-results/internal/logger"
	"github.com/stemsi/exstem-results/internal/repository"
	"github.com/stemsi/exstem-results/internal/scoring"
	"github.com/stemsi/exstem-results/internal/service"
	"github.com/stemsi/exstem-results/internal/worker"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "resultsctl",
		Short:         "Operate the ExStem results store",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	f := root.PersistentFlags()
	f.String("database-url", "", "PostgreSQL URL (or set DATABASE_URL)")
	f.String("redis-url", "", "Redis URL (or set REDIS_URL)")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.String("log-format", "", "Log format (console, json)")

	root.AddCommand(migrateCmd(), exportCmd(), rescoreCmd())
	return root
}

// viperForCmd binds a command's flags and the environment to a fresh viper
// instance. Flags win over DATABASE_URL style variables.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())
	_ = v.BindPFlags(cmd.InheritedFlags())

	// Only the connection settings come from the environment; a blanket
	// AutomaticEnv would let PATH shadow --path.
	for _, key := range []string{"database-url", "redis-url", "log-level", "log-format"} {
		_ = v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, "-", "_")))
	}
	return v
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(v *viper.Viper) *config.Config {
	cfg := config.Load()
	if s := v.GetString("database-url"); s != "" {
		cfg.DatabaseURL = s
	}
	if s := v.GetString("redis-url"); s != "" {
		cfg.RedisURL = s
	}
	if s := v.GetString("log-level"); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString("log-format"); s != "" {
		cfg.LogFormat = s
	}
	return cfg
}

// app holds the services a one-shot command needs.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	pool    *pgxpool.Pool
	rdb     *redis.Client
	exams   *service.ExamService
	results *service.ResultService
	queue   *worker.RescoreWorker
}

func openApp(ctx context.Context, v *viper.Viper) (*app, error) {
	cfg := loadConfig(v)
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	queue := worker.NewRescoreWorker(rdb, log)
	exams := service.NewExamService(repository.NewExamRepository(pool), rdb, queue, cfg.ExamCacheTTL, log)
	reconciler := scoring.NewBatchReconciler(exams, scoring.BatchConfig{
		Concurrency:   cfg.LookupConcurrency,
		LookupTimeout: cfg.LookupTimeout,
	}, log)

	return &app{
		cfg:     cfg,
		log:     log,
		pool:    pool,
		rdb:     rdb,
		exams:   exams,
		results: service.NewResultService(repository.NewResultRepository(pool), reconciler, rdb, log),
		queue:   queue,
	}, nil
}

func (a *app) Close() {
	_ = a.rdb.Close()
	a.pool.Close()
}
