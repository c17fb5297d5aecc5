// Package main runs the phishing detection service: a forensic and
// threat-intelligence scoring engine exposed over an HTTP API and a
// milter frontend.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/emersion/go-milter"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/akashahram/Phishing-Email-Detector/internal/analyzer"
	"github.com/akashahram/Phishing-Email-Detector/internal/api"
	"github.com/akashahram/Phishing-Email-Detector/internal/classifier"
	"github.com/akashahram/Phishing-Email-Detector/internal/config"
	milt "github.com/akashahram/Phishing-Email-Detector/internal/milter"
	"github.com/akashahram/Phishing-Email-Detector/internal/storage"
	"github.com/akashahram/Phishing-Email-Detector/pkg/logger"
)

const (
	AppVersion = "1.0.0"
	AppName    = "Phishing Email Detector"

	// spfTimeout bounds the live SPF lookup inside one SMTP transaction.
	spfTimeout = 5 * time.Second
)

var (
	cfg         *config.Config
	ctx, cancel = context.WithCancel(context.Background())
	mainLog     *zap.Logger
	milterLog   *zap.Logger
	apiLog      *zap.Logger

	wg sync.WaitGroup
)

func main() {
	var err error
	cfg, err = config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to initialize configuration: %v\n", err)
		os.Exit(1)
	}

	if err := initLoggers(); err != nil {
		fmt.Printf("Failed to initialize loggers: %v\n", err)
		os.Exit(1)
	}
	defer syncLoggers()
	zap.ReplaceGlobals(mainLog)

	ref, err := config.LoadReferenceData(cfg.ReferenceDataPath)
	if err != nil {
		mainLog.Fatal("Failed to load reference data", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	}

	var store *storage.Store
	if cfg.DatabaseURL != "" {
		db, err := storage.New(cfg.DatabaseURL, cfg.MaxDBConnections)
		if err != nil {
			mainLog.Fatal("Failed to connect to database", zap.Error(err))
		}
		store = storage.NewStore(db)
	}

	// The classifier artifact lives behind an external service, loaded
	// once here and shared read-only across all requests.
	cls := classifier.NewHTTP(mainLog.Named("classifier"), &cfg.Classifier)

	core := analyzer.New(mainLog.Named("analyzer"), cfg, ref, cls, rdb, nil)

	startServers(core, store)

	mainLog.Info("Application started successfully",
		zap.String("name", AppName),
		zap.String("version", AppVersion),
		zap.String("environment", cfg.Env),
		zap.String("api_port", cfg.ApiPort),
		zap.String("milter_port", cfg.MilterPort),
	)

	handleShutdown()
}

func initLoggers() error {
	create := func(filename string) (*zap.Logger, error) {
		logConfig := logger.LogConfig{
			Level:         cfg.LogLevel,
			MaxSizeMB:     100,
			MaxBackups:    7,
			MaxAgeDays:    30,
			ConsoleOutput: cfg.Env == "development",
		}
		if cfg.LogPath != "" {
			logConfig.FilePath = cfg.LogPath + "/" + filename
		}
		return logger.New(logConfig)
	}

	var err error
	if mainLog, err = create("main.log"); err != nil {
		return fmt.Errorf("creating main logger: %w", err)
	}
	if milterLog, err = create("milter.log"); err != nil {
		return fmt.Errorf("creating milter logger: %w", err)
	}
	if apiLog, err = create("api.log"); err != nil {
		return fmt.Errorf("creating API logger: %w", err)
	}
	return nil
}

func syncLoggers() {
	for _, l := range []*zap.Logger{mainLog, milterLog, apiLog} {
		if l != nil {
			_ = l.Sync()
		}
	}
}

func startServers(core *analyzer.Analyzer, store *storage.Store) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		router := api.NewServer(apiLog, cfg, core, store)
		if err := router.Run(":" + cfg.ApiPort); err != nil {
			mainLog.Error("API server stopped", zap.Error(err))
		}
	}()

	if cfg.MilterPort == "" {
		return
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		server := milter.Server{
			NewMilter: func() milter.Milter {
				return milt.NewSession(milterLog, core, spfTimeout)
			},
			Actions: milter.OptAddHeader,
		}
		ln, err := net.Listen("tcp", ":"+cfg.MilterPort)
		if err != nil {
			mainLog.Error("Failed to listen for milter connections", zap.Error(err))
			return
		}
		go func() {
			<-ctx.Done()
			_ = ln.Close()
		}()
		if err := server.Serve(ln); err != nil && ctx.Err() == nil {
			mainLog.Error("Milter server stopped", zap.Error(err))
		}
	}()
}

func handleShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		mainLog.Info("Signal received", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		mainLog.Info("Graceful shutdown completed")
	case <-shutdownCtx.Done():
		mainLog.Warn("Shutdown timeout exceeded, forcing exit")
	}
}
