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
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/reitvault/reitdata/data"
	"github.com/reitvault/reitdata/export"
	"github.com/reitvault/reitdata/healthcheck"
	"github.com/reitvault/reitdata/provider"
	"github.com/reitvault/reitdata/store"
	"github.com/rs/zerolog"
)

// Datastore is the slice of the relational store the pipeline drives:
// tabular writes plus the read-backs the valuation derivation and the
// report snapshot work from. *store.Store implements it.
type Datastore interface {
	Write(ctx context.Context, tableName string, rows []data.Row, mode store.WriteMode) error
	Prices(ctx context.Context) ([]*data.PriceRecord, error)
	Fundamentals(ctx context.Context) ([]*data.FundamentalRecord, error)
	Valuations(ctx context.Context) ([]*data.ValuationRecord, error)
}

// Pipeline sequences one full rebuild: fetch prices, persist, resolve
// fundamentals, persist, derive the valuation table, persist, hand the
// result off to the report snapshot. There is no retry and no rollback;
// table replaces are not transactional across tables, so a crash
// between the fundamentals and valuation writes leaves the store
// valid-but-stale (old valuation beside new fundamentals).
type Pipeline struct {
	Provider provider.Client
	Store    Datastore

	Tickers    []string
	Lookback   string
	Interval   string
	NumWorkers int

	// ReportPath, when set, is where the valuation snapshot for the
	// external report renderer is written.
	ReportPath string

	// HealthCheckID, when set, is pinged after a successful run.
	HealthCheckID string
}

// Run executes the pipeline once. Fetch and persistence failures are
// logged and the run continues against whatever state the store holds;
// only a failure of the valuation derivation itself (e.g. the store is
// unreachable) aborts the run with an error.
func (pipeline *Pipeline) Run(ctx context.Context) (*data.RunSummary, error) {
	logger := zerolog.Ctx(ctx)

	summary := &data.RunSummary{
		ID:               uuid.New(),
		StartTime:        time.Now(),
		TickersRequested: len(pipeline.Tickers),
	}

	// prices: one batched fetch; a failure empties the whole batch
	logger.Info().Int("NumTickers", len(pipeline.Tickers)).Str("Lookback", pipeline.Lookback).
		Str("Interval", pipeline.Interval).Msg("fetching historical prices")

	series, err := pipeline.Provider.PriceHistory(ctx, pipeline.Tickers, pipeline.Lookback, pipeline.Interval)
	if err != nil {
		logger.Error().Err(err).Msg("price history fetch failed, continuing with no price data")
		series = map[string][]provider.ClosePoint{}
	}

	priceRows := NormalizePrices(pipeline.Tickers, series)
	summary.NumPrices = len(priceRows)
	logger.Info().Int("NumRecords", len(priceRows)).Msg("price data fetching complete")

	if err := pipeline.Store.Write(ctx, data.PricesTable, priceRows, store.Replace); err != nil {
		logger.Error().Err(err).Str("Table", data.PricesTable).
			Msg("could not persist price records, downstream steps will see stale or missing prices")
	}

	// fundamentals: per-ticker resolution with failure isolation
	logger.Info().Msg("fetching quarterly financial fundamentals")

	resolver := &Resolver{Provider: pipeline.Provider, NumWorkers: pipeline.NumWorkers}
	fundamentalRows := resolver.Resolve(ctx, pipeline.Tickers)
	summary.NumFundamentals = len(fundamentalRows)
	logger.Info().Int("NumRecords", len(fundamentalRows)).Msg("fundamentals data fetching complete")

	if err := pipeline.Store.Write(ctx, data.FundamentalsTable, fundamentalRows, store.Replace); err != nil {
		logger.Error().Err(err).Str("Table", data.FundamentalsTable).
			Msg("could not persist fundamental records, downstream steps will see stale or missing fundamentals")
	}

	// valuation: derived from the persisted tables; errors here are fatal
	logger.Info().Msg("calculating TTM P/FFO valuation metrics")

	fundamentals, err := pipeline.Store.Fundamentals(ctx)
	if err != nil {
		return summary, err
	}

	prices, err := pipeline.Store.Prices(ctx)
	if err != nil {
		return summary, err
	}

	valuationRows := ComputeValuation(fundamentals, prices)
	summary.NumValuations = len(valuationRows)
	summary.TickersValued = len(valuationRows)
	logger.Info().Int("NumRecords", len(valuationRows)).Msg("valuation calculation complete")

	if err := pipeline.Store.Write(ctx, data.ValuationTable, valuationRows, store.Replace); err != nil {
		logger.Error().Err(err).Str("Table", data.ValuationTable).Msg("could not persist valuation records")
	}

	// renderer handoff: read the persisted table back in full and
	// write the snapshot the chart generator consumes
	if pipeline.ReportPath != "" {
		valuations, err := pipeline.Store.Valuations(ctx)
		if err != nil {
			return summary, err
		}

		if err := export.ValuationCSV(pipeline.ReportPath, valuations); err != nil {
			logger.Error().Err(err).Str("ReportPath", pipeline.ReportPath).Msg("could not write valuation snapshot")
		} else {
			logger.Info().Str("ReportPath", pipeline.ReportPath).Msg("valuation snapshot written")
		}
	}

	summary.EndTime = time.Now()

	if err := pipeline.Store.Write(ctx, data.RunsTable, []data.Row{summary}, store.Append); err != nil {
		logger.Error().Err(err).Msg("could not save run summary")
	}

	if pipeline.HealthCheckID != "" {
		if err := healthcheck.Ping(pipeline.HealthCheckID); err != nil {
			logger.Error().Err(err).Msg("could not ping healthcheck")
		}
	}

	return summary, nil
}
