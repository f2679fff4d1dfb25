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
	"context"
	"time"

	"github.com/reitvault/reitdata/pipeline"
	"github.com/reitvault/reitdata/provider"
	"github.com/reitvault/reitdata/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the valuation data pipeline",
	Long: `The run sub-command executes one full rebuild of the research database:
weekly close prices and quarterly fundamentals are fetched for the configured
ticker basket, written with replace semantics, and the TTM P/FFO valuation
table is derived and persisted. A ticker missing from the final table was
skipped upstream; per-ticker outcomes are reported as the run proceeds.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := log.Logger.WithContext(context.Background())

		myStore := store.New(viper.GetString("dbUrl"))
		if err := myStore.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myStore.Close()

		dataPipeline := &pipeline.Pipeline{
			Provider:      provider.NewYahoo(viper.GetInt("rateLimit")),
			Store:         myStore,
			Tickers:       viper.GetStringSlice("tickers"),
			Lookback:      viper.GetString("lookback"),
			Interval:      viper.GetString("interval"),
			NumWorkers:    viper.GetInt("numWorkers"),
			ReportPath:    viper.GetString("reportPath"),
			HealthCheckID: viper.GetString("healthcheck.id"),
		}

		startTime := time.Now()

		summary, err := dataPipeline.Run(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("pipeline run failed")
		}

		log.Info().Str("RunTime", time.Since(startTime).Round(time.Millisecond).String()).
			Int("NumPrices", summary.NumPrices).
			Int("NumFundamentals", summary.NumFundamentals).
			Int("NumValuations", summary.NumValuations).
			Int("TickersRequested", summary.TickersRequested).
			Int("TickersValued", summary.TickersValued).
			Msg("pipeline run complete")
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
