package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wfunc/sweeper/config"
	"github.com/wfunc/sweeper/logger"
	"github.com/wfunc/sweeper/persistence"
	"github.com/wfunc/sweeper/server"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	if err := logger.Init("info", false); err != nil {
		panic(err)
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		logger.Log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := openDatabase(cfg)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}

	gameServer, err := server.NewGameServer(cfg, db)
	if err != nil {
		logger.Log.Fatalf("Failed to create server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- gameServer.Start()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	case s := <-sig:
		logger.Log.Infof("Received %s, shutting down", s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gameServer.Shutdown(ctx); err != nil {
		logger.Log.Errorf("Shutdown: %v", err)
	}
}

func openDatabase(cfg *config.Config) (persistence.Database, error) {
	if !cfg.Database.Enabled {
		logger.Log.Info("Database disabled, archiving games in memory.")
		return persistence.NewMemory(), nil
	}

	pg := cfg.Database.Postgres
	db, err := persistence.Open(persistence.Options{
		Driver:   cfg.Database.Driver,
		Host:     pg.Host,
		Port:     pg.Port,
		User:     pg.User,
		Password: pg.Password,
		DBName:   pg.DBName,
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Infof("Database connection successful (%s).", cfg.Database.Driver)
	return db, nil
}
