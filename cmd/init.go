// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/reitvault/reitdata/db"
	"github.com/reitvault/reitdata/healthcheck"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type configSettings struct {
	DBUrl      string   `toml:"dbUrl"`
	Tickers    []string `toml:"tickers"`
	Lookback   string   `toml:"lookback"`
	Interval   string   `toml:"interval"`
	NumWorkers int      `toml:"numWorkers"`
	RateLimit  int      `toml:"rateLimit"`
	ReportPath string   `toml:"reportPath"`

	HealthCheck struct {
		ID     string `toml:"id"`
		APIKey string `toml:"apikey"`
	} `toml:"healthcheck"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		settings := configSettings{
			Tickers:    viper.GetStringSlice("tickers"),
			Lookback:   viper.GetString("lookback"),
			Interval:   viper.GetString("interval"),
			NumWorkers: viper.GetInt("numWorkers"),
			RateLimit:  viper.GetInt("rateLimit"),
			ReportPath: viper.GetString("reportPath"),
		}

		form := huh.NewForm(
			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&settings.DBUrl).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Optional healthchecks.io integration
			huh.NewGroup(
				huh.NewInput().
					Title("healthchecks.io API key (leave empty to skip run monitoring)").
					Value(&settings.HealthCheck.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering database settings")
		}

		log.Info().Msg("creating run bookkeeping tables")

		// run migration
		dbURL := strings.Replace(settings.DBUrl, "postgres://", "pgx5://", -1)
		err = db.Migrate(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		if settings.HealthCheck.APIKey != "" {
			viper.Set("healthcheck.apikey", settings.HealthCheck.APIKey)

			checkID, err := healthcheck.Create("reitdata valuation pipeline", "reitdata",
				[]string{"reitdata"}, "0 6 * * 1-5")
			if err != nil {
				log.Fatal().Err(err).Msg("error creating healthcheck")
			}

			settings.HealthCheck.ID = checkID
			log.Info().Str("HealthCheckID", checkID).Msg("created healthcheck")
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".reitdata.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database connection info to config file")
		configData, err := toml.Marshal(settings)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your research database has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
