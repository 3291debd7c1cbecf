package commands

import (
	"fmt"
	"strings"

	"github.com/nstehr/striker/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version string
	commit  string
	date    string

	// configErr is set when an explicitly requested config file could not
	// be read. Commands that need configuration report it.
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "striker",
	Short: "Striker - play-driven robot soccer engine",
	Long: `Striker drives a team of soccer robots. Every tick it picks the
highest-scoring play for the current world state, runs that play's
behavior state machine and a dedicated goalie behavior, and answers the
simulator bridge with robot commands.

Plays are defined in a YAML playbook that can be reloaded while running.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is ./striker.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	config.SetDefaults()

	cfgFile := viper.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("striker")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/striker")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("STRIKER")
	// STRIKER_REDIS_ADDR for redis.addr
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing default config file is fine; a missing explicit one is not.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		configErr = fmt.Errorf("failed to read config %s: %w", cfgFile, err)
	}
}

// loadConfig returns the validated configuration for the running command.
func loadConfig() (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}
	return config.Load()
}
