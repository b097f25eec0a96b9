package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dukerupert/dealfinder/internal/config"
	"github.com/dukerupert/dealfinder/internal/database"
	"github.com/dukerupert/dealfinder/internal/logging"
	"github.com/dukerupert/dealfinder/internal/seed"
	"github.com/dukerupert/dealfinder/internal/store"
)

func main() {
	file := flag.String("file", "", "YAML file with deals (default: built-in sample deals)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	data := seed.Default()
	if *file != "" {
		if data, err = os.ReadFile(*file); err != nil {
			logger.Error("read seed file", "path", *file, "error", err)
			os.Exit(1)
		}
	}

	deals, err := seed.Parse(data)
	if err != nil {
		logger.Error("parse seed file", "error", err)
		os.Exit(1)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := seed.Apply(ctx, store.NewDealStore(db), deals, time.Now().UTC(), logger)
	if err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete", "inserted", res.Inserted, "skipped", res.Skipped)
}
