// @title                       CellScan API
// @version                     1.0
// @description                 Blood cell image classification with per-user prediction history.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "cellscan/docs"
	"cellscan/internal/classifier"
	"cellscan/internal/config"
	"cellscan/internal/handlers"
	"cellscan/internal/logger"
	"cellscan/internal/report"
	"cellscan/internal/repository"
	"cellscan/internal/repository/db"
	"cellscan/internal/server"
	"cellscan/internal/service"
	"cellscan/internal/session"
	"cellscan/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	startupTimeout  = 15 * time.Second
)

func main() {
	// load config.yml + CELLSCAN_* env
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.InfoLevel, logger.FormatConsole).Fatalw("error reading config", "err", err)
	}

	// init logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	defer func() { _ = log.Sync() }()

	// open DB
	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer closeDB(conn, log)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	uploads, outputs, err := openStores(ctx, cfg.Storage)
	cancel()
	if err != nil {
		log.Fatalw("failed to open storage", "backend", cfg.Storage.Backend, "err", err)
	}

	model := classifier.NewTFServingModel(cfg.Classifier.Endpoint, cfg.Classifier.ModelName, cfg.Classifier.Timeout)
	checkModel(model, cfg.Classifier, log)

	// wire dependencies
	repos := repository.NewRepository(conn)
	services := service.NewService(repos, service.Deps{
		Classifier:        classifier.New(model, log),
		Uploads:           uploads,
		Outputs:           outputs,
		Renderer:          report.NewRenderer(),
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		Log:               log,
	})
	sessions := session.NewManager(session.Options{
		Secret:          cfg.Session.Secret,
		CookieName:      cfg.Session.CookieName,
		FlashCookieName: cfg.Session.FlashCookieName,
		TTL:             cfg.Session.TTL,
		Secure:          cfg.Session.Secure,
	})
	apiHandler := handlers.NewHandler(services, sessions, log, handlers.Options{
		MaxUploadBytes:    cfg.Upload.MaxBytes,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	})

	// start HTTP server
	srv := &server.Server{WriteTimeout: cfg.Classifier.Timeout + 30*time.Second}
	runHTTPServer(srv, cfg.Port, apiHandler, log)

	// graceful shutdown
	waitForShutdown(srv, log)
}

// openStores returns the upload and output stores for the configured backend.
func openStores(ctx context.Context, cfg config.StorageConfig) (storage.Store, storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMinio:
		m := cfg.Minio
		client, err := storage.NewMinioClient(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.Bucket, m.UseSSL)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewMinioStore(client, m.Bucket, "uploads"), storage.NewMinioStore(client, m.Bucket, "output"), nil
	case config.BackendLocal:
		uploads, err := storage.NewLocalStore(cfg.UploadDir)
		if err != nil {
			return nil, nil, err
		}
		// one archive folder per label
		outputs, err := storage.NewLocalStore(cfg.OutputDir, classifier.Labels...)
		if err != nil {
			return nil, nil, err
		}
		return uploads, outputs, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// checkModel logs whether the model server is reachable. The app still starts
// without it; uploads fail with a processing error until it is.
func checkModel(model *classifier.TFServingModel, cfg config.ClassifierConfig, log *logger.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := model.Ready(ctx); err != nil {
		log.Warnw("classifier_not_ready", "endpoint", cfg.Endpoint, "model", cfg.ModelName, "err", err)
		return
	}
	log.Infow("classifier_ready", "endpoint", cfg.Endpoint, "model", cfg.ModelName)
}

func closeDB(conn *sql.DB, log *logger.Logger) {
	if err := conn.Close(); err != nil {
		log.Errorw("failed to close sqlite", "err", err)
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		log.Infow("server_starting", "port", port)
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}
