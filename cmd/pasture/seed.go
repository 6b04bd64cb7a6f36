package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agrolabs/pasture/internal/config"
	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/store"
)

var (
	seedFarmName string
	seedServer   bool
	seedOwner    string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a farm with its default categories",
	Long: "Creates a farm and seeds its default cost categories. By default the\n" +
		"farm is created in the device-local database; --server writes it to the\n" +
		"server database instead (with an OWNER membership when --owner is set).",
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedFarmName, "name", "", "farm name (required)")
	seedCmd.Flags().BoolVar(&seedServer, "server", false, "create in the server database")
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "owner user id (server only)")
	_ = seedCmd.MarkFlagRequired("name")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)

	var db *store.Store
	if seedServer {
		db, err = store.OpenServer(cfg.Database.Driver, cfg.Database.DSN)
	} else {
		db, err = store.OpenLocal(cfg.Local.Path)
	}
	if err != nil {
		return err
	}
	defer db.Close()

	farm := &domain.Farm{Name: seedFarmName, OwnerUserID: seedOwner}
	if err := db.CreateFarm(cmd.Context(), farm); err != nil {
		return err
	}

	fmt.Printf("farm %s created: %s\n", farm.Name, farm.ID)
	return nil
}
