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
package provider

import (
	"context"
	"time"
)

// Client is the market-data capability surface consumed by the pipeline.
// Implementations are expected to carry their own request timeouts and
// never retry automatically.
type Client interface {
	Name() string

	// PriceHistory returns a close-price series per requested ticker.
	// A ticker missing from the returned map simply had no data; only
	// transport-level problems that invalidate the whole batch are
	// returned as an error.
	PriceHistory(ctx context.Context, tickers []string, lookback string, interval string) (map[string][]ClosePoint, error)

	// QuarterlyFinancials returns reported quarterly net income for one
	// ticker, oldest first. An empty slice means the provider has no
	// statements for the ticker.
	QuarterlyFinancials(ctx context.Context, ticker string) ([]QuarterlyIncome, error)

	// SharesSources returns the shares-outstanding lookups in fallback
	// priority order.
	SharesSources() []SharesSource
}

// SharesSource is a single independent lookup for a ticker's current
// share count. ok=false means the source had no value; err means the
// source itself failed. Callers treat both the same way but log them
// differently.
type SharesSource interface {
	Name() string
	Shares(ctx context.Context, ticker string) (shares float64, ok bool, err error)
}

// ClosePoint is one raw bar from the provider. Close is nil when the
// provider reports a gap for that date.
type ClosePoint struct {
	Date  time.Time
	Close *float64
}

// QuarterlyIncome is one quarterly income-statement row. NetIncome is
// nil when the statement exists but the line item is missing.
type QuarterlyIncome struct {
	QuarterEnd time.Time
	NetIncome  *float64
}
