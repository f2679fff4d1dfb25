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
package data

import (
	"time"

	"github.com/google/uuid"
)

// RunsTable holds one row per pipeline run. Unlike the three data
// tables it is migrate-managed and only ever appended to.
const RunsTable = "pipeline_runs"

// RunSummary captures the outcome of a single pipeline run. It is
// appended to the pipeline_runs table so operators can review run
// history with the info sub-command.
type RunSummary struct {
	ID               uuid.UUID `db:"id"`
	StartTime        time.Time `db:"start_time"`
	EndTime          time.Time `db:"end_time"`
	TickersRequested int       `db:"tickers_requested"`
	TickersValued    int       `db:"tickers_valued"`
	NumPrices        int       `db:"num_prices"`
	NumFundamentals  int       `db:"num_fundamentals"`
	NumValuations    int       `db:"num_valuations"`
}

func (summary *RunSummary) Columns() []ColumnDef {
	return []ColumnDef{
		{Name: "id", SQLType: "UUID"},
		{Name: "start_time", SQLType: "TIMESTAMP WITH TIME ZONE"},
		{Name: "end_time", SQLType: "TIMESTAMP WITH TIME ZONE"},
		{Name: "tickers_requested", SQLType: "INTEGER"},
		{Name: "tickers_valued", SQLType: "INTEGER"},
		{Name: "num_prices", SQLType: "INTEGER"},
		{Name: "num_fundamentals", SQLType: "INTEGER"},
		{Name: "num_valuations", SQLType: "INTEGER"},
	}
}

func (summary *RunSummary) Values() []any {
	return []any{summary.ID, summary.StartTime, summary.EndTime, summary.TickersRequested,
		summary.TickersValued, summary.NumPrices, summary.NumFundamentals, summary.NumValuations}
}
