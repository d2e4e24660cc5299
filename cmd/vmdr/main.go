// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the vmdr CLI: report management,
// template listing and host detections against the Qualys VMDR API, with
// optional local snapshots.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/qualys-vmdr/internal/secrets"
	"github.com/pdiddy/qualys-vmdr/pkg/qualys"
	"github.com/pdiddy/qualys-vmdr/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedCredentials holds the values read from the secrets directory.
var loadedCredentials secrets.Credentials

var rootCmd = &cobra.Command{
	Use:   "vmdr",
	Short: "Qualys VMDR reports, templates and host detections",
	Long: `vmdr talks to the Qualys VMDR XML API. It lists, launches, cancels,
fetches and deletes reports, lists report templates, and lists hosts with
their detections. Results can be filtered locally and saved to a SQLite
snapshot archive for later querying and export.

Credentials come from flags, VMDR_* environment variables, the config file,
or files in the secrets directory (qualys-username, qualys-password,
qualys-platform), in that order.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir := viper.GetString("secrets_dir")
		creds, err := secrets.LoadCredentials(dir)
		if err != nil {
			return err
		}
		loadedCredentials = creds
		if creds.Username != "" {
			log.Debug().Str("dir", dir).Msg("loaded credentials from secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./vmdr.yaml or ~/.config/vmdr/vmdr.yaml)")
	pf.String("platform", "", "Qualys platform (qg1, qg2, eu1, ...; default qg1)")
	pf.String("base-url", "", "API base URL, overrides --platform")
	pf.String("username", "", "Qualys username")
	pf.String("password", "", "Qualys password")
	pf.Duration("timeout", 5*time.Minute, "HTTP request timeout")
	pf.String("secrets-dir", ".secrets/", "directory holding credential files")
	pf.String("output", "table", "output format: table, json or yaml")
	pf.BoolP("verbose", "v", false, "log API calls to stderr")

	bindFlag("platform", "platform")
	bindFlag("base_url", "base-url")
	bindFlag("username", "username")
	bindFlag("password", "password")
	bindFlag("timeout", "timeout")
	bindFlag("secrets_dir", "secrets-dir")
	bindFlag("output", "output")
	bindFlag("verbose", "verbose")
}

func bindFlag(key, name string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
		panic(err)
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("vmdr")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "vmdr"))
		}
	}

	viper.SetEnvPrefix("VMDR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("archive.db_path", "vmdr.db")
	viper.SetDefault("archive.export_dir", "export")

	err := viper.ReadInConfig()
	setupLogging(viper.GetBool("verbose"))
	if err == nil {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

func setupLogging(verbose bool) {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// clientConfig merges viper settings with the secrets directory. Explicit
// settings win over secrets.
func clientConfig() types.ClientConfig {
	cfg := types.ClientConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("timeout"),
			UserAgent: "qualys-vmdr/" + version,
		},
		Platform: viper.GetString("platform"),
		BaseURL:  viper.GetString("base_url"),
		Username: viper.GetString("username"),
		Password: viper.GetString("password"),
	}
	if cfg.Username == "" {
		cfg.Username = loadedCredentials.Username
	}
	if cfg.Password == "" {
		cfg.Password = loadedCredentials.Password
	}
	if cfg.Platform == "" {
		cfg.Platform = loadedCredentials.Platform
	}
	return cfg
}

// archiveConfig returns the snapshot database settings.
func archiveConfig() types.ArchiveConfig {
	return types.ArchiveConfig{
		DBPath:    viper.GetString("archive.db_path"),
		ExportDir: viper.GetString("archive.export_dir"),
	}
}

// newAuth builds the credentials handle every API subcommand uses.
func newAuth() (*qualys.BasicAuth, error) {
	return qualys.NewBasicAuthFromConfig(clientConfig(), qualys.WithLogger(log.Logger))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("vmdr failed")
		os.Exit(1)
	}
}
