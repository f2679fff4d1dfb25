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
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/reitvault/reitdata/data"
)

var (
	ErrNotConnected = errors.New("store is not connected")
)

type WriteMode int

const (
	// Replace drops and recreates the named table so it holds exactly
	// the given records.
	Replace WriteMode = iota

	// Append adds records without deleting existing rows.
	Append
)

// Store is an explicitly constructed handle on the relational store.
// The orchestrator owns it exclusively for the duration of a pipeline
// run; there are no concurrent writers.
type Store struct {
	DBUrl string

	Pool *pgxpool.Pool
}

func New(dbURL string) *Store {
	return &Store{DBUrl: dbURL}
}

// Connect to the database configured for the store
func (myStore *Store) Connect(ctx context.Context) error {
	if myStore.Pool != nil {
		return nil
	}

	pool, err := pgxpool.New(ctx, myStore.DBUrl)
	if err != nil {
		return err
	}
	myStore.Pool = pool

	return nil
}

// Close the database pool
func (myStore *Store) Close() {
	if myStore.Pool != nil {
		myStore.Pool.Close()
	}
}

// Write persists rows under tableName. All rows must share one tabular
// shape; column names and order come from the first row. Replace writes
// drop and recreate the table inside a single transaction so a failed
// write leaves the previous contents untouched. An empty row set is a
// no-op, not an error.
func (myStore *Store) Write(ctx context.Context, tableName string, rows []data.Row, mode WriteMode) error {
	if len(rows) == 0 {
		return nil
	}

	if myStore.Pool == nil {
		return ErrNotConnected
	}

	conn, err := myStore.Pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	columns := rows[0].Columns()

	if mode == Replace {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", pgx.Identifier{tableName}.Sanitize())); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, CreateTableSQL(tableName, columns)); err != nil {
		return err
	}

	columnNames := make([]string, 0, len(columns))
	for _, column := range columns {
		columnNames = append(columnNames, column.Name)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{tableName}, columnNames,
		pgx.CopyFromSlice(len(rows), func(idx int) ([]any, error) {
			return rows[idx].Values(), nil
		}))
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CreateTableSQL builds the CREATE TABLE statement for a tabular shape.
// Column identifiers are quoted so the persisted schema keeps the exact
// mixed-case names downstream report tooling expects.
func CreateTableSQL(tableName string, columns []data.ColumnDef) string {
	defs := make([]string, 0, len(columns))
	for _, column := range columns {
		defs = append(defs, fmt.Sprintf("%s %s", pgx.Identifier{column.Name}.Sanitize(), column.SQLType))
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", pgx.Identifier{tableName}.Sanitize(), strings.Join(defs, ", "))
}

// Prices reads back the full ticker_prices table
func (myStore *Store) Prices(ctx context.Context) ([]*data.PriceRecord, error) {
	if myStore.Pool == nil {
		return nil, ErrNotConnected
	}

	var prices []*data.PriceRecord
	err := pgxscan.Select(ctx, myStore.Pool, &prices,
		fmt.Sprintf(`SELECT "Ticker", "Date", "Close_Price" FROM %s`, data.PricesTable))
	return prices, err
}

// Fundamentals reads back the full ticker_fundamentals table
func (myStore *Store) Fundamentals(ctx context.Context) ([]*data.FundamentalRecord, error) {
	if myStore.Pool == nil {
		return nil, ErrNotConnected
	}

	var fundamentals []*data.FundamentalRecord
	err := pgxscan.Select(ctx, myStore.Pool, &fundamentals,
		fmt.Sprintf(`SELECT "Date", "Net_Income", "Ticker", "Shares_Outstanding" FROM %s`, data.FundamentalsTable))
	return fundamentals, err
}

// Valuations reads back the derived valuation table ordered the same
// way it was written, most expensive security first.
func (myStore *Store) Valuations(ctx context.Context) ([]*data.ValuationRecord, error) {
	if myStore.Pool == nil {
		return nil, ErrNotConnected
	}

	var valuations []*data.ValuationRecord
	err := pgxscan.Select(ctx, myStore.Pool, &valuations,
		fmt.Sprintf(`SELECT "Ticker", "Latest_Price_Date", "Close_Price", "TTM_Net_Income",
"Shares_Outstanding", "TTM_Net_Income_Per_Share", "P_to_FFO_Multiple", "Dividend_Yield"
FROM %s ORDER BY "Close_Price" DESC, "Ticker" ASC`, data.ValuationTable))
	return valuations, err
}

// RunSummaries returns the most recent pipeline runs, newest first.
// Summaries arrive through Write in Append mode, one row per run.
func (myStore *Store) RunSummaries(ctx context.Context, limit int) ([]*data.RunSummary, error) {
	if myStore.Pool == nil {
		return nil, ErrNotConnected
	}

	var summaries []*data.RunSummary
	err := pgxscan.Select(ctx, myStore.Pool, &summaries,
		fmt.Sprintf(`SELECT id, start_time, end_time, tickers_requested, tickers_valued,
num_prices, num_fundamentals, num_valuations
FROM %s ORDER BY start_time DESC LIMIT $1`, data.RunsTable), limit)
	return summaries, err
}
