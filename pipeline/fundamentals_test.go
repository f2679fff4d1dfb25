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
package pipeline_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/reitvault/reitdata/data"
	"github.com/reitvault/reitdata/pipeline"
	"github.com/reitvault/reitdata/provider"
)

var errSourceDown = errors.New("source unavailable")

var _ = Describe("Resolver", func() {
	var (
		ctx    context.Context
		client *fakeClient
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &fakeClient{
			quarters: map[string][]provider.QuarterlyIncome{
				"EQR": {
					{QuarterEnd: day("2024-03-31"), NetIncome: f64(10)},
					{QuarterEnd: day("2024-06-30"), NetIncome: f64(20)},
					{QuarterEnd: day("2024-09-30"), NetIncome: nil},
					{QuarterEnd: day("2024-12-31"), NetIncome: f64(40)},
				},
			},
			quartersErr: map[string]error{},
		}
	})

	Describe("shares fallback chain", func() {
		It("uses the first source that returns a value and never consults later sources", func() {
			sourceA := &fakeSharesSource{name: "a", ok: false}
			sourceB := &fakeSharesSource{name: "b", shares: 2_000_000, ok: true}
			sourceC := &fakeSharesSource{name: "c", shares: 3_000_000, ok: true}
			client.sources = []provider.SharesSource{sourceA, sourceB, sourceC}

			resolver := &pipeline.Resolver{Provider: client}
			rows := resolver.Resolve(ctx, []string{"EQR"})

			Expect(rows).NotTo(BeEmpty())
			Expect(rows[0].(*data.FundamentalRecord).SharesOutstanding).To(Equal(2_000_000.0))
			Expect(sourceA.timesCalled()).To(Equal(1))
			Expect(sourceB.timesCalled()).To(Equal(1))
			Expect(sourceC.timesCalled()).To(BeZero())
		})

		It("treats a source error the same as a null result", func() {
			sourceA := &fakeSharesSource{name: "a", err: errSourceDown}
			sourceB := &fakeSharesSource{name: "b", shares: 500_000, ok: true}
			client.sources = []provider.SharesSource{sourceA, sourceB}

			resolver := &pipeline.Resolver{Provider: client}
			rows := resolver.Resolve(ctx, []string{"EQR"})

			Expect(rows).NotTo(BeEmpty())
			Expect(rows[0].(*data.FundamentalRecord).SharesOutstanding).To(Equal(500_000.0))
		})

		It("skips the ticker when every source fails or returns null", func() {
			client.sources = []provider.SharesSource{
				&fakeSharesSource{name: "a", err: errSourceDown},
				&fakeSharesSource{name: "b", ok: false},
				&fakeSharesSource{name: "c", ok: false},
			}

			resolver := &pipeline.Resolver{Provider: client}
			Expect(resolver.Resolve(ctx, []string{"EQR"})).To(BeEmpty())
		})
	})

	It("skips a ticker with no quarterly financials without consulting shares sources", func() {
		source := &fakeSharesSource{name: "a", shares: 100, ok: true}
		client.sources = []provider.SharesSource{source}

		resolver := &pipeline.Resolver{Provider: client}
		rows := resolver.Resolve(ctx, []string{"AVB"})

		Expect(rows).To(BeEmpty())
		Expect(source.timesCalled()).To(BeZero())
	})

	It("drops quarters with missing net income and broadcasts shares to the rest", func() {
		client.sources = []provider.SharesSource{&fakeSharesSource{name: "a", shares: 100, ok: true}}

		resolver := &pipeline.Resolver{Provider: client}
		rows := resolver.Resolve(ctx, []string{"EQR"})

		Expect(rows).To(HaveLen(3))
		for _, row := range rows {
			record := row.(*data.FundamentalRecord)
			Expect(record.Ticker).To(Equal("EQR"))
			Expect(record.SharesOutstanding).To(Equal(100.0))
			Expect(record.Date).NotTo(Equal("2024-09-30"))
		}
	})

	It("isolates one ticker's failure from the rest of the batch", func() {
		client.quarters["AVB"] = []provider.QuarterlyIncome{
			{QuarterEnd: day("2024-12-31"), NetIncome: f64(7)},
		}
		client.quartersErr["EQR"] = errSourceDown
		client.sources = []provider.SharesSource{&fakeSharesSource{name: "a", shares: 50, ok: true}}

		resolver := &pipeline.Resolver{Provider: client}
		rows := resolver.Resolve(ctx, []string{"EQR", "AVB"})

		Expect(rows).To(HaveLen(1))
		Expect(rows[0].(*data.FundamentalRecord).Ticker).To(Equal("AVB"))
	})

	It("concatenates successes in input ticker order regardless of worker count", func() {
		client.quarters["AVB"] = []provider.QuarterlyIncome{
			{QuarterEnd: day("2024-12-31"), NetIncome: f64(7)},
		}
		client.quarters["ESS"] = []provider.QuarterlyIncome{
			{QuarterEnd: day("2024-12-31"), NetIncome: f64(9)},
		}
		client.sources = []provider.SharesSource{&fakeSharesSource{name: "a", shares: 50, ok: true}}

		resolver := &pipeline.Resolver{Provider: client, NumWorkers: 8}
		rows := resolver.Resolve(ctx, []string{"ESS", "EQR", "AVB"})

		tickers := make([]string, 0, len(rows))
		for _, row := range rows {
			record := row.(*data.FundamentalRecord)
			if len(tickers) == 0 || tickers[len(tickers)-1] != record.Ticker {
				tickers = append(tickers, record.Ticker)
			}
		}
		Expect(tickers).To(Equal([]string{"ESS", "EQR", "AVB"}))
	})
})
