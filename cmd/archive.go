/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hughigh/loginserver/config"
	"github.com/hughigh/loginserver/internal/db"
	"github.com/hughigh/loginserver/internal/storage"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/spf13/cobra"
)

const archivePageSize = 500

// archiveCmd represents the archive command.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Export the auth audit trail to object storage",
	Long: `Exports all recorded auth events as a JSON-lines object to the
configured object storage backend (MinIO or GCS). One object is written
per run, keyed by export time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		ctx := cmd.Context()

		backend, err := storage.New(ctx, cfg.Archive)
		if err != nil {
			return err
		}

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := backend.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}

		events := store.NewAuthEventRepository(dbConn)
		count, err := writeArchive(ctx, backend, events)
		if err != nil {
			return err
		}

		fmt.Printf("archived %d auth events to bucket %s\n", count, backend.Bucket())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}

func writeArchive(ctx context.Context, backend storage.ObjectStorage, events *store.AuthEventRepository) (int, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	count := 0

	for skip := 0; ; skip += archivePageSize {
		page, err := events.List(ctx, skip, archivePageSize, "")
		if err != nil {
			return 0, fmt.Errorf("list auth events: %w", err)
		}
		for _, event := range page {
			if err := enc.Encode(event); err != nil {
				return 0, err
			}
		}
		count += len(page)
		if len(page) < archivePageSize {
			break
		}
	}

	key := fmt.Sprintf("auth-events/%s.jsonl", time.Now().UTC().Format("20060102T150405Z"))
	if err := backend.Put(ctx, key, &buf, int64(buf.Len()), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("upload archive: %w", err)
	}
	return count, nil
}
