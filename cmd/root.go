/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/dutyroster/apiserver/config"
	"github.com/dutyroster/apiserver/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roster",
	Short: "Duty roster backend",
	Long: `Backend for managing duty schedules, work records and todos.

	roster server
	roster migrate up
	roster seed-admin`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger from cfg, falling back to a
// production logger when the configured level is invalid.
func newLogger(cfg config.Config) *zap.Logger {
	log, err := logging.New(cfg.LogLevel, cfg.IsDev())
	if err != nil {
		log = zap.Must(zap.NewProduction())
		log.Warn("falling back to default logger", zap.Error(err))
	}
	return log
}
