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
	"github.com/reitvault/reitdata/data"
	"github.com/reitvault/reitdata/provider"
)

// NormalizePrices flattens per-ticker close-price series into uniform
// PriceRecord rows. Bars without a close are dropped and a ticker with
// no series contributes zero rows; neither case is an error.
func NormalizePrices(tickers []string, series map[string][]provider.ClosePoint) []data.Row {
	rows := make([]data.Row, 0, len(tickers)*260)

	for _, ticker := range tickers {
		points, ok := series[ticker]
		if !ok {
			continue
		}

		for _, point := range points {
			if point.Close == nil {
				continue
			}

			rows = append(rows, &data.PriceRecord{
				Ticker:     ticker,
				Date:       point.Date.Format(data.DateFormat),
				ClosePrice: *point.Close,
			})
		}
	}

	return rows
}
