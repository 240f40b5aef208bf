/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpere/hingeval/internal/config"
	"github.com/valpere/hingeval/internal/logger"
)

var version = "0.1.0"

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hingeval",
	Short: "Hinglish translation evaluation pipeline",
	Long: `A CLI that evaluates Hinglish-to-English translation systems over a dataset
of sentence triplets (a base sentence and two syntactic variants).

Pipeline:
  reference   fill gold English references with a machine translation API
  translate   run one configured provider over every variant
  merge       join every provider's result table into the dataset
  score       compute BLEU, edit similarity or embedding similarity
  convert     turn a result table into JSON records

Providers and paths are read from hingeval.yaml; API keys may live in .env.`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.Setup(logLevel, logFormat)

		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// envKeys are the scalar settings that may be overridden from HINGEVAL_* variables.
var envKeys = []string{"source", "dataset", "merge_output", "db", "reference_delay"}

func loadConfig() (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn("failed to load .env", "error", err)
	}

	v := viper.New()
	v.SetEnvPrefix("HINGEVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	} else {
		v.SetConfigName("hingeval")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, err
			}
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		logger.Log.Debug("using config file", "path", used)
	}

	return config.Load(v)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ./hingeval.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
}
