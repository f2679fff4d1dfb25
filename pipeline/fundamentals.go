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
	"sync"

	"github.com/reitvault/reitdata/data"
	"github.com/reitvault/reitdata/provider"
	"github.com/rs/zerolog"
)

const defaultNumWorkers = 4

// Resolver produces FundamentalRecord rows per ticker. Every ticker is
// resolved independently: a failure or missing datum skips that ticker
// and never affects any other ticker in the batch.
type Resolver struct {
	Provider provider.Client

	// NumWorkers bounds how many tickers resolve concurrently. Values
	// <= 0 select the default.
	NumWorkers int
}

// outcome is the tagged result of resolving one ticker. Either records
// is non-empty or skipReason says why the ticker produced nothing.
type outcome struct {
	ticker     string
	records    []*data.FundamentalRecord
	skipReason string
}

// Resolve fans the ticker set out over a bounded worker pool and
// concatenates the per-ticker successes in input order. The result is
// empty, not an error, when every ticker is skipped.
func (resolver *Resolver) Resolve(ctx context.Context, tickers []string) []data.Row {
	logger := zerolog.Ctx(ctx)

	numWorkers := resolver.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}

	outcomes := make([]outcome, len(tickers))
	sem := make(chan struct{}, numWorkers)

	var wg sync.WaitGroup
	for idx, ticker := range tickers {
		wg.Add(1)
		go func(idx int, ticker string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			outcomes[idx] = resolver.resolveTicker(ctx, ticker)
		}(idx, ticker)
	}
	wg.Wait()

	rows := make([]data.Row, 0, len(tickers)*20)
	for _, result := range outcomes {
		if result.skipReason != "" {
			logger.Warn().Str("Ticker", result.ticker).Str("Reason", result.skipReason).Msg("skipping ticker")
			continue
		}

		logger.Info().Str("Ticker", result.ticker).Int("NumQuarters", len(result.records)).Msg("resolved fundamentals")

		for _, record := range result.records {
			rows = append(rows, record)
		}
	}

	return rows
}

func (resolver *Resolver) resolveTicker(ctx context.Context, ticker string) outcome {
	logger := zerolog.Ctx(ctx)

	quarters, err := resolver.Provider.QuarterlyFinancials(ctx, ticker)
	if err != nil {
		logger.Error().Err(err).Str("Ticker", ticker).Msg("could not fetch quarterly financials")
		return outcome{ticker: ticker, skipReason: "quarterly financials unavailable"}
	}

	if len(quarters) == 0 {
		return outcome{ticker: ticker, skipReason: "no quarterly financials"}
	}

	shares, sourceName, ok := resolver.resolveShares(ctx, ticker)
	if !ok {
		return outcome{ticker: ticker, skipReason: "no shares outstanding source succeeded"}
	}

	logger.Debug().Str("Ticker", ticker).Str("SharesSource", sourceName).Float64("Shares", shares).
		Msg("resolved shares outstanding")

	// the single resolved share count is broadcast to every quarter of
	// the ticker
	records := make([]*data.FundamentalRecord, 0, len(quarters))
	for _, quarter := range quarters {
		if quarter.NetIncome == nil {
			continue
		}

		records = append(records, &data.FundamentalRecord{
			Date:              quarter.QuarterEnd.Format(data.DateFormat),
			NetIncome:         *quarter.NetIncome,
			Ticker:            ticker,
			SharesOutstanding: shares,
		})
	}

	if len(records) == 0 {
		return outcome{ticker: ticker, skipReason: "every quarter is missing net income"}
	}

	return outcome{ticker: ticker, records: records}
}

// resolveShares walks the provider's shares sources in priority order
// and returns the first non-null value. A source error is logged and
// treated the same as a null result.
func (resolver *Resolver) resolveShares(ctx context.Context, ticker string) (float64, string, bool) {
	logger := zerolog.Ctx(ctx)

	for _, source := range resolver.Provider.SharesSources() {
		shares, ok, err := source.Shares(ctx, ticker)
		if err != nil {
			logger.Warn().Err(err).Str("Ticker", ticker).Str("SharesSource", source.Name()).
				Msg("shares source failed, trying next source")
			continue
		}

		if ok {
			return shares, source.Name(), true
		}

		logger.Debug().Str("Ticker", ticker).Str("SharesSource", source.Name()).
			Msg("shares source returned no value, trying next source")
	}

	return 0, "", false
}
