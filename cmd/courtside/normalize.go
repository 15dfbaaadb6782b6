package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fortuna/courtside/internal/config"
	"github.com/fortuna/courtside/internal/ingest/bref"
	"github.com/fortuna/courtside/internal/pagestore"
	"github.com/fortuna/courtside/internal/progress"
	"github.com/fortuna/courtside/internal/publisher"
	"github.com/fortuna/courtside/internal/store"
	"github.com/fortuna/courtside/internal/store/repository"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Normalize cached box scores into game records",
	Long:  "Parses every cached box score page into two per-team game records, writing them to Postgres and the Redis record stream when those are configured.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return runNormalize(cfg)
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)
}

func runNormalize(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pages, err := pagestore.New(cfg.DataDir)
	if err != nil {
		return err
	}

	var sinks []bref.RecordSink

	if cfg.PostgresDSN != "" {
		db, err := store.NewDatabase(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.RunMigrations(); err != nil {
			return err
		}
		log.Println("✓ Database migrations applied")

		sinks = append(sinks, repository.NewRecordRepository(db))
	}

	if cfg.RedisURL != "" {
		pub, err := publisher.NewRedisPublisher(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable, records stay local: %v", err)
		} else {
			defer pub.Close()
			sinks = append(sinks, pub)
		}
	}

	if len(sinks) == 0 {
		log.Println("⊘ No Postgres or Redis configured, normalizing without persistence")
	}

	normalizer := bref.NewNormalizer(pages, progress.LogSink{}, sinks...)

	_, err = normalizer.Run(ctx)
	return err
}
