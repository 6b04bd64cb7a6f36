package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agrolabs/pasture/internal/auth"
	"github.com/agrolabs/pasture/internal/config"
)

var tokenUserID string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for a user",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUserID, "user", "", "user id to issue for (required)")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Auth.Secret == "" {
		return errors.New("PASTURE_AUTH_SECRET is required to issue tokens")
	}

	token, err := auth.IssueToken(cfg.Auth.Secret, tokenUserID, time.Duration(cfg.Auth.TokenTTL))
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}
