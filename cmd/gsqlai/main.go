package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/gsqlai/internal/ai"
	"github.com/xxxsen/gsqlai/internal/config"
	"github.com/xxxsen/gsqlai/internal/db"
	"github.com/xxxsen/gsqlai/internal/handler"
	"github.com/xxxsen/gsqlai/internal/job"
	"github.com/xxxsen/gsqlai/internal/knowledge"
	"github.com/xxxsen/gsqlai/internal/middleware"
	"github.com/xxxsen/gsqlai/internal/repo"
	"github.com/xxxsen/gsqlai/internal/schedule"
	"github.com/xxxsen/gsqlai/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "gsqlai",
		Short: "GSQL code assistant backend",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json or config.yaml")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run gsqlai server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			conn, err := openDB(cfg)
			if err != nil {
				return err
			}
			if conn != nil {
				defer conn.Close()
			}
			return runServer(cfg, conn)
		},
	}

	rootCmd.AddCommand(runCmd, newChunksCmd(&configPath), newSearchCmd(&configPath), newTokenCmd(&configPath), newJobsCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", path), zap.String("env", cfg.Env))
	return cfg, nil
}

// openDB returns nil without error when no database is configured.
func openDB(cfg *config.Config) (*sql.DB, error) {
	if !cfg.Database.Enabled() {
		return nil, nil
	}
	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return conn, nil
}

func newKnowledgeStore(cfg *config.Config) *knowledge.Store {
	source, err := knowledge.NewSource(cfg.Knowledge.Source)
	if err != nil {
		// a broken source only costs grounding, so keep serving
		logutil.GetLogger(context.Background()).Error("init knowledge source failed", zap.Error(err))
		source = nil
	}
	return knowledge.NewStore(source, knowledge.ParseOptions{
		Namespace:     cfg.Knowledge.Namespace,
		MinChunkChars: cfg.Knowledge.MinChunkChars,
	})
}

func newGSQLService(cfg *config.Config, conn *sql.DB) (*service.GSQLService, *repo.GenerationRepo, error) {
	provider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("init ai provider: %w", err)
	}
	manager := ai.NewManager(ai.NewGenerator(provider, cfg.AI.Model), ai.ManagerConfig{Timeout: cfg.AI.Timeout})
	opts := []service.Option{
		service.WithTopK(cfg.Knowledge.TopK),
		service.WithCache(cfg.Cache.Size, time.Duration(cfg.Cache.TTLSeconds)*time.Second),
	}
	var generations *repo.GenerationRepo
	if conn != nil {
		generations = repo.NewGenerationRepo(conn)
		opts = append(opts, service.WithGenerationStore(generations))
	}
	if !manager.Configured() {
		logutil.GetLogger(context.Background()).Warn("ai provider is not configured, generation endpoints will return 503",
			zap.String("provider", cfg.AI.Provider))
	}
	return service.NewGSQLService(newKnowledgeStore(cfg), manager, opts...), generations, nil
}

// newScheduler registers the background jobs. Audit cleanup is only added
// when generations are persisted.
func newScheduler(cfg *config.Config, gsqlService *service.GSQLService, generations *repo.GenerationRepo) (*schedule.CronScheduler, error) {
	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewUsageReportJob(gsqlService), cfg.Jobs.UsageReportSpec); err != nil {
		return nil, fmt.Errorf("schedule usage report: %w", err)
	}
	if generations != nil {
		if err := scheduler.AddJob(job.NewAuditCleanupJob(generations, cfg.Jobs.AuditMaxAgeDays), cfg.Jobs.AuditCleanupSpec); err != nil {
			return nil, fmt.Errorf("schedule audit cleanup: %w", err)
		}
	}
	return scheduler, nil
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("knowledge_source", cfg.Knowledge.Source.Type),
		zap.Bool("audit", conn != nil),
	)

	gsqlService, generations, err := newGSQLService(cfg, conn)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler, err := newScheduler(cfg, gsqlService, generations)
	if err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		GSQL:            handler.NewGSQLHandler(gsqlService, !cfg.IsProduction()),
		Authenticator:   middleware.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret)),
		RateLimitWindow: time.Duration(cfg.RateLimit.WindowMs) * time.Millisecond,
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
