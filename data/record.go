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

// Table names consumed by downstream report tooling. Column names and
// column order are part of the contract and must not change.
const (
	PricesTable       = "ticker_prices"
	FundamentalsTable = "ticker_fundamentals"
	ValuationTable    = "final_valuation_data"
)

// DateFormat is the calendar date layout used in all persisted tables.
const DateFormat = "2006-01-02"

type ColumnDef struct {
	Name    string
	SQLType string
}

// Row is a record that knows its own tabular shape. Columns defines the
// column names, order, and SQL types used when the store (re)creates the
// table; Values must line up 1:1 with Columns.
type Row interface {
	Columns() []ColumnDef
	Values() []any
}

// PriceRecord is one weekly closing price observation for a single
// security. Key is (Ticker, Date).
type PriceRecord struct {
	Ticker     string  `db:"Ticker"`
	Date       string  `db:"Date"`
	ClosePrice float64 `db:"Close_Price"`
}

func (price *PriceRecord) Columns() []ColumnDef {
	return []ColumnDef{
		{Name: "Ticker", SQLType: "TEXT"},
		{Name: "Date", SQLType: "TEXT"},
		{Name: "Close_Price", SQLType: "DOUBLE PRECISION"},
	}
}

func (price *PriceRecord) Values() []any {
	return []any{price.Ticker, price.Date, price.ClosePrice}
}

// FundamentalRecord is one fiscal quarter of reported net income for a
// single security. SharesOutstanding is the latest resolved share count
// broadcast to every quarter of the ticker; it is not a historical
// share count.
type FundamentalRecord struct {
	Date              string  `db:"Date"`
	NetIncome         float64 `db:"Net_Income"`
	Ticker            string  `db:"Ticker"`
	SharesOutstanding float64 `db:"Shares_Outstanding"`
}

func (fundamental *FundamentalRecord) Columns() []ColumnDef {
	return []ColumnDef{
		{Name: "Date", SQLType: "TEXT"},
		{Name: "Net_Income", SQLType: "DOUBLE PRECISION"},
		{Name: "Ticker", SQLType: "TEXT"},
		{Name: "Shares_Outstanding", SQLType: "DOUBLE PRECISION"},
	}
}

func (fundamental *FundamentalRecord) Values() []any {
	return []any{fundamental.Date, fundamental.NetIncome, fundamental.Ticker, fundamental.SharesOutstanding}
}

// ValuationRecord is one derived valuation row per security. DividendYield
// is nil until a real dividend source is wired up; it persists as NULL so
// report consumers can tell "not computed" apart from a confirmed zero
// yield.
type ValuationRecord struct {
	Ticker               string   `db:"Ticker" csv:"Ticker"`
	LatestPriceDate      string   `db:"Latest_Price_Date" csv:"Latest_Price_Date"`
	ClosePrice           float64  `db:"Close_Price" csv:"Close_Price"`
	TTMNetIncome         float64  `db:"TTM_Net_Income" csv:"TTM_Net_Income"`
	SharesOutstanding    float64  `db:"Shares_Outstanding" csv:"Shares_Outstanding"`
	TTMNetIncomePerShare float64  `db:"TTM_Net_Income_Per_Share" csv:"TTM_Net_Income_Per_Share"`
	PriceToFFOMultiple   float64  `db:"P_to_FFO_Multiple" csv:"P_to_FFO_Multiple"`
	DividendYield        *float64 `db:"Dividend_Yield" csv:"Dividend_Yield"`
}

func (valuation *ValuationRecord) Columns() []ColumnDef {
	return []ColumnDef{
		{Name: "Ticker", SQLType: "TEXT"},
		{Name: "Latest_Price_Date", SQLType: "TEXT"},
		{Name: "Close_Price", SQLType: "DOUBLE PRECISION"},
		{Name: "TTM_Net_Income", SQLType: "DOUBLE PRECISION"},
		{Name: "Shares_Outstanding", SQLType: "DOUBLE PRECISION"},
		{Name: "TTM_Net_Income_Per_Share", SQLType: "DOUBLE PRECISION"},
		{Name: "P_to_FFO_Multiple", SQLType: "DOUBLE PRECISION"},
		{Name: "Dividend_Yield", SQLType: "DOUBLE PRECISION"},
	}
}

func (valuation *ValuationRecord) Values() []any {
	return []any{valuation.Ticker, valuation.LatestPriceDate, valuation.ClosePrice,
		valuation.TTMNetIncome, valuation.SharesOutstanding, valuation.TTMNetIncomePerShare,
		valuation.PriceToFFOMultiple, valuation.DividendYield}
}
