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
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/reitvault/reitdata/data"
	"github.com/reitvault/reitdata/store"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display recent pipeline runs",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		myStore := store.New(viper.GetString("dbUrl"))
		if err := myStore.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		defer myStore.Close()

		summaries, err := myStore.RunSummaries(ctx, 10)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load run history")
		}

		r, _ := glamour.NewTermRenderer(
			// detect background color and pick either the default dark or light theme
			glamour.WithAutoStyle(),
			// wrap output at specific width (default is 80)
			glamour.WithWordWrap(100),
		)

		out, err := r.Render(runHistoryMarkdown(summaries))
		if err != nil {
			log.Fatal().Err(err).Msg("could not render run history")
		}

		fmt.Print(out)
	},
}

func runHistoryMarkdown(summaries []*data.RunSummary) string {
	var doc strings.Builder

	doc.WriteString("# reitdata run history\n\n")

	if len(summaries) == 0 {
		doc.WriteString("No pipeline runs recorded yet. Use `reitdata run` to build the database.\n")
		return doc.String()
	}

	doc.WriteString("| Started | Duration | Tickers Valued | Prices | Fundamentals | Valuations |\n")
	doc.WriteString("|---------|----------|----------------|--------|--------------|------------|\n")

	for _, summary := range summaries {
		doc.WriteString(fmt.Sprintf("| %s | %s | %d / %d | %d | %d | %d |\n",
			summary.StartTime.Format("2006-01-02 15:04"),
			summary.EndTime.Sub(summary.StartTime).Round(time.Millisecond).String(),
			summary.TickersValued, summary.TickersRequested,
			summary.NumPrices, summary.NumFundamentals, summary.NumValuations))
	}

	return doc.String()
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
