// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MKhiriev/go-kdbx/internal/config"
	"github.com/MKhiriev/go-kdbx/internal/kdbx"
	"github.com/MKhiriev/go-kdbx/internal/logger"
	"github.com/MKhiriev/go-kdbx/internal/service"
	"github.com/MKhiriev/go-kdbx/internal/store"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	cfg, err := config.GetStructuredConfig()
	if err != nil {
		logger.NewLogger("kdbxtool").Fatal().Err(err).Msg("error getting configs")
	}

	log := logger.NewLogger(cfg.App.LogRole)

	documents, err := service.NewDocumentService(store.NewFilePayloadStore(log), *cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating document service")
	}

	ctx := context.Background()
	if cfg.App.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.App.Timeout)
		defer cancel()
	}

	if err = run(ctx, documents, cfg); err != nil {
		log.Error().Err(err).Msg("kdbxtool failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, documents *service.DocumentService, cfg *config.StructuredConfig) error {
	if _, err := documents.Load(ctx); err != nil {
		return err
	}

	if cfg.App.Query != "" {
		found, err := documents.Search(cfg.App.Query)
		if err != nil {
			return err
		}
		for _, n := range found {
			fmt.Printf("%-5s %s %s\n", kindOf(n), n.UUID(), n.Title().ClearValue())
		}
	} else {
		sum, err := documents.Summary()
		if err != nil {
			return err
		}
		fmt.Printf("Database: %s\n", sum.Name)
		fmt.Printf("Groups: %d\n", sum.Groups)
		fmt.Printf("Entries: %d (history snapshots: %d)\n", sum.Entries, sum.HistorySnapshots)
		fmt.Printf("Attachments: %d\n", sum.Attachments)
	}

	if cfg.Document.OutputPath != "" {
		return documents.Persist(ctx)
	}
	return nil
}

func kindOf(n kdbx.Node) string {
	if _, ok := n.(*kdbx.Group); ok {
		return "group"
	}
	return "entry"
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
