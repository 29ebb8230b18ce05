package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/AzielCF/az-ravena/core/config"
	"github.com/AzielCF/az-ravena/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "ravenabot",
	Short: "Multi-bot WhatsApp automation platform",
	Long: `Runs several WhatsApp sessions that share one group database, one command
catalogue and one web dashboard.`,
	PersistentPreRunE: initApp,
	SilenceUsage:      true,
}

func init() {
	initFlags()
	rootCmd.AddCommand(restCmd, migrateCmd)
}

func initFlags() {
	flags := rootCmd.PersistentFlags()

	flags.StringP("port", "p", "", "change port number with --port <number> | example: --port=8080")
	flags.BoolP("debug", "d", false, "displaying debug log with --debug <true/false> | example: --debug=true")
	flags.StringSliceP("basic-auth", "b", nil, "basic auth credential | -b=yourUsername:yourPassword")
	flags.String("base-path", "", `base path for subpath deployment --base-path <string> | example: --base-path="/ravena"`)
	flags.String("storage-driver", "", `where groups and reports are stored: json, sqlite or postgres | example: --storage-driver=sqlite`)
	flags.String("bots-config", "", `bots file (json or yaml) | example: --bots-config="bots.yaml"`)
	flags.String("env-file", ".env", "dotenv file loaded before reading the environment")

	for _, name := range []string{"port", "debug", "basic-auth", "base-path", "storage-driver", "bots-config", "env-file"} {
		if err := viper.BindPFlag(strings.ReplaceAll(name, "-", "_"), flags.Lookup(name)); err != nil {
			logrus.Fatalf("[CONFIG] Failed to bind flag %s: %v", name, err)
		}
	}
}

func initApp(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(viper.GetString("env_file")); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("[CONFIG] Could not read %s: %v", viper.GetString("env_file"), err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg)

	if cfg.App.Debug {
		cfg.Whatsapp.LogLevel = "DEBUG"
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := utils.CreateFolder(cfg.Paths.Storages, cfg.Paths.Data, cfg.Paths.Temp); err != nil {
		logrus.Errorln(err)
	}
	return nil
}

// applyFlags overrides the environment with the flags given on the command line.
func applyFlags(cfg *config.Config) {
	if v := viper.GetString("port"); v != "" {
		cfg.App.Port = v
	}
	if viper.GetBool("debug") {
		cfg.App.Debug = true
	}
	if v := viper.GetStringSlice("basic_auth"); len(v) > 0 {
		cfg.App.BasicAuth = v
	}
	if v := viper.GetString("base_path"); v != "" {
		cfg.App.BasePath = v
	}
	if v := strings.ToLower(viper.GetString("storage_driver")); v != "" {
		cfg.Database.StorageDriver = v
	}
	if v := viper.GetString("bots_config"); v != "" {
		cfg.Bot.ConfigFile = v
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
