/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"github.com/dutyroster/apiserver/config"
	"github.com/dutyroster/apiserver/internal/db"
	"github.com/dutyroster/apiserver/internal/server"
	"github.com/dutyroster/apiserver/internal/services"
	"github.com/dutyroster/apiserver/internal/store"
	"github.com/dutyroster/apiserver/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFlags struct {
	username string
	password string
	name     string
}

// seedAdminCmd creates the bootstrap admin account.
var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the initial admin account if it does not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)
		defer func() { _ = log.Sync() }()

		dbConn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer dbConn.Close()

		accounts := services.NewAccountService(
			server.NewTransactor(store.New(dbConn)),
			services.NewBcryptHasher(cfg.Auth.BcryptCost),
			nil,
			log,
		)

		acc, created, err := accounts.SeedAdmin(cmd.Context(), types.NewAccount{
			Name:     valueOr(seedFlags.name, cfg.Admin.Name),
			Login:    valueOr(seedFlags.username, cfg.Admin.Username),
			Password: valueOr(seedFlags.password, cfg.Admin.Password),
			Profile: types.AccountProfile{
				Email:      optional(cfg.Admin.Email),
				Phone:      optional(cfg.Admin.Phone),
				Department: optional(cfg.Admin.Department),
			},
		})
		if err != nil {
			log.Error("seed admin failed", zap.Error(err))
			return err
		}
		if created {
			log.Info("admin account created", zap.String("username", acc.Login), zap.Int("id", acc.ID))
		} else {
			log.Info("admin account already exists", zap.String("username", acc.Login), zap.Int("id", acc.ID))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)

	seedAdminCmd.Flags().StringVar(&seedFlags.username, "username", "", "admin login (defaults to ADMIN_USERNAME)")
	seedAdminCmd.Flags().StringVar(&seedFlags.password, "password", "", "admin password (defaults to ADMIN_PASSWORD)")
	seedAdminCmd.Flags().StringVar(&seedFlags.name, "name", "", "admin display name (defaults to ADMIN_NAME)")
}

func valueOr(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
