package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/reved/internal/attempt"
	"github.com/example/reved/internal/cache"
	"github.com/example/reved/internal/config"
	"github.com/example/reved/internal/database"
	"github.com/example/reved/internal/excel"
	"github.com/example/reved/internal/logger"
	"github.com/example/reved/internal/recommendation"
	"github.com/example/reved/internal/server"
	"github.com/example/reved/internal/srs"
)

func main() {
	importFile := flag.String("import", "", "import the exercise catalog from an .xlsx or .csv file and exit")
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	db, err := database.Connect(database.Options{
		Type:      cfg.DBType,
		URL:       cfg.DBURL,
		SQLiteDir: cfg.SQLiteDir,
	})
	if err != nil {
		log.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	exercises := database.NewExerciseRepository(db)

	if *importFile != "" {
		importConfig := excel.DefaultImportConfig()
		importConfig.FilePath = *importFile
		result, err := excel.NewImporter(exercises).ImportExercises(context.Background(), importConfig)
		if err != nil {
			log.Fatal("catalog import failed", "error", err)
		}
		log.Info("catalog import finished",
			"processed", result.TotalProcessed,
			"created", result.Created,
			"updated", result.Updated,
			"skipped", result.Skipped,
			"errors", len(result.Errors),
		)
		for _, e := range result.Errors {
			log.Warn("import row error", "detail", e)
		}
		return
	}

	students := database.NewStudentRepository(db)
	progress := database.NewProgressRepository(db)
	revisions := database.NewRevisionRepository(db)

	var store cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Fatal("failed to connect to redis", "error", err)
		}
		defer redisCache.Close()
		store = redisCache
	} else {
		log.Warn("REDIS_ADDR not set, using in-process recommendation cache")
		store = cache.NewMemory()
	}

	scheduler := srs.New(revisions, log, cfg.MaxIntervalDays)
	processor := attempt.NewProcessor(db, exercises, students, progress, scheduler, store, log)
	engine := recommendation.NewEngine(students, exercises, progress, store, cfg.RecommendationTTL, cfg.DefaultRecLimit, log)

	router := server.New(server.Deps{
		Auth:      server.NewAuthHandler(students, cfg.JWTSecret, log),
		Students:  server.NewStudentHandler(processor, engine, scheduler, progress, log),
		JWTSecret: cfg.JWTSecret,
		Env:       cfg.Env,
		Log:       log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}
	log.Info("server stopped")
}
