package ragchat

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	// 注册 LLM 供应商
	_ "github.com/kart-io/rag-chat/pkg/llm/deepseek"
	_ "github.com/kart-io/rag-chat/pkg/llm/ollama"
	_ "github.com/kart-io/rag-chat/pkg/llm/openai"

	"github.com/kart-io/rag-chat/internal/pkg/middleware"
	"github.com/kart-io/rag-chat/internal/ragchat/biz"
	"github.com/kart-io/rag-chat/internal/ragchat/cache"
	"github.com/kart-io/rag-chat/internal/ragchat/handler"
	"github.com/kart-io/rag-chat/internal/ragchat/router"
	"github.com/kart-io/rag-chat/pkg/app"
	"github.com/kart-io/rag-chat/pkg/tracing"
)

// Server is the assembled rag-chat HTTP server.
type Server struct {
	srv             *http.Server
	opts            *Options
	queryCache      *cache.QueryCache
	tracingProvider *tracing.Provider
}

// NewServer initializes and returns a new Server instance.
func NewServer(ctx context.Context, opts *Options) (*Server, error) {
	// 1. 初始化日志
	opts.Log.AddInitialField("service.name", appName)
	opts.Log.AddInitialField("service.version", app.GetVersion())
	if err := opts.Log.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting rag-chat service...")

	// 2. 初始化链路追踪（默认 noop exporter，不采集）
	tracingProvider, err := tracing.NewProvider(opts.Tracing)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	// 3. 初始化查询缓存。缓存不可达只降级，不阻止启动。
	queryCache := cache.New(&cache.Config{
		Enabled:   opts.Cache.Enabled,
		Addr:      opts.Cache.Addr,
		Password:  opts.Cache.Password,
		DB:        opts.Cache.DB,
		TTL:       opts.Cache.TTL,
		KeyPrefix: opts.Cache.KeyPrefix,
	})
	if queryCache.Enabled() {
		if err := queryCache.Ping(ctx); err != nil {
			logger.Warnw("redis unreachable, query cache degraded to miss-only",
				"addr", opts.Cache.Addr, "error", err.Error())
		} else {
			logger.Infow("query cache enabled", "addr", opts.Cache.Addr, "ttl", opts.Cache.TTL)
		}
	} else {
		logger.Info("query cache disabled")
	}

	// 4. 初始化 Biz 层
	svc := biz.NewService(queryCache, &biz.Config{
		TopK:            opts.RAG.TopK,
		EmbedWorkers:    opts.RAG.EmbedWorkers,
		UpstreamTimeout: opts.RAG.UpstreamTimeout,
	})
	logger.Infow("rag-chat service initialized",
		"top_k", opts.RAG.TopK,
		"embed_workers", opts.RAG.EmbedWorkers,
		"upstream_timeout", opts.RAG.UpstreamTimeout,
	)

	// 5. 初始化 Handler 与路由
	gin.SetMode(opts.Server.Mode)
	engine := gin.New()

	corsOpts := *middleware.NewCORSOptions()
	corsOpts.AllowOrigins = opts.CORS.AllowOrigins

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger("/health"),
		middleware.CORSWithOptions(corsOpts),
		middleware.Timeout(opts.Server.RequestTimeout, "/swagger"),
	)

	router.Register(engine, handler.New(svc))

	srv := &http.Server{
		Addr:         opts.Server.Addr,
		Handler:      engine,
		ReadTimeout:  opts.Server.ReadTimeout,
		WriteTimeout: opts.Server.WriteTimeout,
		IdleTimeout:  opts.Server.IdleTimeout,
	}

	logger.Info("rag-chat service is ready")
	return &Server{
		srv:             srv,
		opts:            opts,
		queryCache:      queryCache,
		tracingProvider: tracingProvider,
	}, nil
}

// Run starts the server and blocks until SIGINT/SIGTERM, then drains
// in-flight requests within the configured shutdown window.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infow("HTTP server listening", "addr", s.opts.Server.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down rag-chat service...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.Server.ShutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("forced shutdown", "error", err.Error())
		return err
	}

	if err := s.queryCache.Close(); err != nil {
		logger.Warnw("failed to close query cache", "error", err.Error())
	}
	if err := s.tracingProvider.Shutdown(shutdownCtx); err != nil {
		logger.Warnw("failed to shut down tracing", "error", err.Error())
	}

	logger.Info("rag-chat service stopped")
	return nil
}
