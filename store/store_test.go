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
package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reitvault/reitdata/data"
	"github.com/reitvault/reitdata/store"
)

var _ = Describe("CreateTableSQL", func() {
	It("quotes mixed-case column names so the persisted schema is exact", func() {
		record := &data.PriceRecord{}
		sql := store.CreateTableSQL(data.PricesTable, record.Columns())
		Expect(sql).To(Equal(`CREATE TABLE IF NOT EXISTS "ticker_prices" ("Ticker" TEXT, "Date" TEXT, "Close_Price" DOUBLE PRECISION)`))
	})

	It("keeps the fundamentals column order with the date column first", func() {
		record := &data.FundamentalRecord{}
		sql := store.CreateTableSQL(data.FundamentalsTable, record.Columns())
		Expect(sql).To(Equal(`CREATE TABLE IF NOT EXISTS "ticker_fundamentals" ("Date" TEXT, "Net_Income" DOUBLE PRECISION, "Ticker" TEXT, "Shares_Outstanding" DOUBLE PRECISION)`))
	})
})

var _ = Describe("Write", func() {
	It("treats an empty record set as a no-op", func() {
		myStore := store.New("postgres://localhost/reitdata")
		Expect(myStore.Write(context.Background(), data.PricesTable, []data.Row{}, store.Replace)).To(Succeed())
	})

	It("refuses to write records before the store is connected", func() {
		myStore := store.New("postgres://localhost/reitdata")
		rows := []data.Row{&data.PriceRecord{Ticker: "EQR", Date: "2025-01-03", ClosePrice: 60}}
		Expect(myStore.Write(context.Background(), data.PricesTable, rows, store.Replace)).To(MatchError(store.ErrNotConnected))
	})
})

var _ = Describe("Row shapes", func() {
	It("keeps Columns and Values aligned for every record type", func() {
		yield := 0.0
		rows := []data.Row{
			&data.PriceRecord{},
			&data.FundamentalRecord{},
			&data.ValuationRecord{DividendYield: &yield},
			&data.RunSummary{},
		}

		for _, row := range rows {
			Expect(row.Values()).To(HaveLen(len(row.Columns())))
		}
	})
})
