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
	"slices"
	"strings"

	"github.com/reitvault/reitdata/data"
)

// ttmQuarters is the trailing window width: the current quarter plus
// the three preceding it.
const ttmQuarters = 4

// ComputeValuation joins fundamentals and prices into one valuation row
// per ticker.
//
// For each ticker the fundamentals are ordered by date descending and a
// trailing net-income sum of width <= ttmQuarters is taken at the most
// recent quarter. Tickers with fewer than four quarters get the sum of
// whatever history exists; this narrow-window behavior is intentional
// and matched by the report consumers. The latest close price per
// ticker joins against that row; a ticker present on only one side is
// dropped. No guard is applied to a zero or negative per-share income,
// so the multiple may be +/-Inf or negative; those values are carried
// through as-is. Result is ordered by close price descending, ties
// broken by ticker.
func ComputeValuation(fundamentals []*data.FundamentalRecord, prices []*data.PriceRecord) []data.Row {
	grouped := make(map[string][]*data.FundamentalRecord)
	for _, record := range fundamentals {
		grouped[record.Ticker] = append(grouped[record.Ticker], record)
	}

	latest := make(map[string]*data.PriceRecord)
	for _, price := range prices {
		if current, ok := latest[price.Ticker]; !ok || price.Date > current.Date {
			latest[price.Ticker] = price
		}
	}

	valuations := make([]*data.ValuationRecord, 0, len(grouped))

	for ticker, records := range grouped {
		price, ok := latest[ticker]
		if !ok {
			// inner join: no price, no valuation row
			continue
		}

		// ISO dates compare correctly as strings
		slices.SortFunc(records, func(a, b *data.FundamentalRecord) int {
			return strings.Compare(b.Date, a.Date)
		})

		netIncomes := make([]float64, len(records))
		for idx, record := range records {
			netIncomes[idx] = record.NetIncome
		}

		ttmNetIncome := trailingSums(netIncomes, ttmQuarters)[0]
		sharesOutstanding := records[0].SharesOutstanding
		perShare := ttmNetIncome / sharesOutstanding

		valuations = append(valuations, &data.ValuationRecord{
			Ticker:               ticker,
			LatestPriceDate:      price.Date,
			ClosePrice:           price.ClosePrice,
			TTMNetIncome:         ttmNetIncome,
			SharesOutstanding:    sharesOutstanding,
			TTMNetIncomePerShare: perShare,
			PriceToFFOMultiple:   price.ClosePrice / perShare,
		})
	}

	slices.SortFunc(valuations, func(a, b *data.ValuationRecord) int {
		switch {
		case a.ClosePrice > b.ClosePrice:
			return -1
		case a.ClosePrice < b.ClosePrice:
			return 1
		}
		return strings.Compare(a.Ticker, b.Ticker)
	})

	rows := make([]data.Row, 0, len(valuations))
	for _, valuation := range valuations {
		rows = append(rows, valuation)
	}

	return rows
}

// trailingSums computes, for each rank r in a descending-date series,
// the sum of values[r] and up to width-1 immediately following (older)
// values. The window narrows near the oldest end of history.
func trailingSums(values []float64, width int) []float64 {
	sums := make([]float64, len(values))
	for rank := range values {
		end := rank + width
		if end > len(values) {
			end = len(values)
		}

		var sum float64
		for idx := rank; idx < end; idx++ {
			sum += values[idx]
		}
		sums[rank] = sum
	}

	return sums
}
