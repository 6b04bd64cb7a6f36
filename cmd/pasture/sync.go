package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrolabs/pasture/internal/config"
	"github.com/agrolabs/pasture/internal/remote"
	"github.com/agrolabs/pasture/internal/store"
	"github.com/agrolabs/pasture/internal/sync"
)

var syncFarmID string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one push/pull sync cycle against the server",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncFarmID, "farm", "", "farm id to sync (required)")
	_ = syncCmd.MarkFlagRequired("farm")
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	if cfg.Remote.URL == "" {
		return errors.New("PASTURE_REMOTE_URL is required to sync")
	}
	if cfg.Remote.Token == "" {
		return errors.New("PASTURE_REMOTE_TOKEN is required to sync")
	}

	local, err := store.OpenLocal(cfg.Local.Path)
	if err != nil {
		return err
	}
	defer local.Close()

	client := remote.NewClient(cfg.Remote.URL, cfg.Remote.Token, time.Duration(cfg.Remote.Timeout))
	orch := sync.NewOrchestrator(local, client)

	report, err := orch.Cycle(cmd.Context(), syncFarmID)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	if err != nil {
		return fmt.Errorf("sync cycle: %w", err)
	}
	return nil
}
