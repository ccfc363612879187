package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clipcut/cache"
	"clipcut/config"
	"clipcut/core/assetlib"
	"clipcut/core/genai"
	"clipcut/core/preview"
	"clipcut/db"
	"clipcut/logger"
	"clipcut/model"
	"clipcut/repository"
	"clipcut/storage"

	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
	})
	defer logger.Sync()

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  10 * time.Minute, // 大文件上传和视频生成都是长请求
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// 初始化 MinIO 客户端
	if err := storage.Init(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	// Connect to the database
	if err := db.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.Close()

	// Connect to Redis
	if err := cache.Connect(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.Close()

	// Initialize database schema
	if err := db.AutoMigrate(&model.Asset{}); err != nil {
		logger.Fatal("Failed to migrate database", logger.ErrorField(err))
	}

	ensureDirExists(cfg.UploadDir)
	if cfg.WatchDir != "" {
		ensureDirExists(cfg.WatchDir)
	}

	assetRepo := repository.NewGormAssetRepository(db.GormDB)
	library := assetlib.NewLibrary(assetRepo, storage.Get())

	// 预览引擎：工程状态 + 播放时钟 + 设备同步 + WebSocket 通道
	engine := preview.NewEngine(cfg.ProjectDuration, cfg.TimelineZoom, cache.NewPlayheadCache())
	go engine.Run()
	defer engine.Close()

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 5*time.Second)
	engine.RestorePlayhead(startupCtx)
	startupCancel()

	// 监听目录自动入库
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.WatchDir != "" {
		go func() {
			if err := library.Watch(watchCtx, cfg.WatchDir); err != nil {
				logger.Error("watch folder stopped", logger.ErrorField(err))
			}
		}()
	}

	// 初始化处理器
	apiHandler := NewAPIHandler(engine, library, genai.NewClient(cfg), cfg)
	previewHandler := NewPreviewHandler(engine, cfg.SessionSecret)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS, HEAD")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
			w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 会话
	router.HandleFunc("/api/auth/session", apiHandler.SessionHandler).Methods(http.MethodPost)

	// 工程状态与修改
	router.HandleFunc("/api/project", apiHandler.AuthMiddleware(apiHandler.GetProjectHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/project/active", apiHandler.AuthMiddleware(apiHandler.GetActiveHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/project/clips", apiHandler.AuthMiddleware(apiHandler.AddClipHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/project/clips/{id}", apiHandler.AuthMiddleware(apiHandler.UpdateClipHandler)).Methods(http.MethodPatch)
	router.HandleFunc("/api/project/clips/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteClipHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/project/text", apiHandler.AuthMiddleware(apiHandler.AddTextHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/project/select", apiHandler.AuthMiddleware(apiHandler.SelectClipHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/project/seek", apiHandler.AuthMiddleware(apiHandler.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/project/play", apiHandler.AuthMiddleware(apiHandler.TogglePlayHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/project/zoom", apiHandler.AuthMiddleware(apiHandler.SetZoomHandler)).Methods(http.MethodPost)

	// 素材库
	router.HandleFunc("/api/assets", apiHandler.AuthMiddleware(apiHandler.UploadAssetHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/assets", apiHandler.AuthMiddleware(apiHandler.ListAssetsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/assets/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteAssetHandler)).Methods(http.MethodDelete)

	// 生成式AI
	router.HandleFunc("/api/generate/image", apiHandler.AuthMiddleware(apiHandler.GenerateImageHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/generate/video", apiHandler.AuthMiddleware(apiHandler.GenerateVideoHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/generate/script", apiHandler.AuthMiddleware(apiHandler.GenerateScriptHandler)).Methods(http.MethodPost)

	// 预览通道
	router.HandleFunc("/ws/preview", previewHandler.HandleWebSocket).Methods(http.MethodGet)

	// 素材文件服务
	router.PathPrefix("/media/").HandlerFunc(MediaHandler)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		logger.Info("Create a session via POST /api/auth/session")
		logger.Info("Project state via GET /api/project, preview channel at /ws/preview")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}

func ensureDirExists(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("Creating directory", logger.String("path", path))
		if err := os.MkdirAll(path, 0755); err != nil {
			logger.Fatal("Failed to create directory",
				logger.String("path", path), logger.ErrorField(err))
		}
	} else if err != nil {
		logger.Fatal("Failed to check directory",
			logger.String("path", path), logger.ErrorField(err))
	}
}
