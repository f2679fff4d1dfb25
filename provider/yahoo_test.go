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
	"fmt"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Yahoo", func() {
	var (
		ctx    context.Context
		mux    *http.ServeMux
		server *httptest.Server
		yahoo  *Yahoo
	)

	BeforeEach(func() {
		ctx = context.Background()
		mux = http.NewServeMux()
		server = httptest.NewServer(mux)
		yahoo = NewYahoo(6000)
		yahoo.client.SetBaseURL(server.URL)
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("PriceHistory", func() {
		BeforeEach(func() {
			mux.HandleFunc("/v8/finance/chart/EQR", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1704412800,1705017600,1705622400],
"indicators":{"quote":[{"close":[60.25,null,61.5]}]}}],"error":null}}`)
			})
		})

		It("returns one series per ticker with gaps preserved as nil", func() {
			series, err := yahoo.PriceHistory(ctx, []string{"EQR"}, "5y", "1wk")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(HaveKey("EQR"))
			Expect(series["EQR"]).To(HaveLen(3))
			Expect(*series["EQR"][0].Close).To(Equal(60.25))
			Expect(series["EQR"][1].Close).To(BeNil())
			Expect(series["EQR"][0].Date.Format("2006-01-02")).To(Equal("2024-01-05"))
		})

		It("omits a failing ticker without failing the batch", func() {
			series, err := yahoo.PriceHistory(ctx, []string{"EQR", "MISSING"}, "5y", "1wk")
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(HaveKey("EQR"))
			Expect(series).NotTo(HaveKey("MISSING"))
		})
	})

	Describe("QuarterlyFinancials", func() {
		It("parses quarter ends and keeps rows with a missing line item as nil", func() {
			mux.HandleFunc("/ws/fundamentals-timeseries/v1/finance/timeseries/EQR", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("type")).To(Equal("quarterlyNetIncome"))
				fmt.Fprint(w, `{"timeseries":{"result":[{"quarterlyNetIncome":[
{"asOfDate":"2024-03-31","reportedValue":{"raw":305000000}},
{"asOfDate":"2024-06-30","reportedValue":null},
{"asOfDate":"2024-09-30","reportedValue":{"raw":310000000}}]}],"error":null}}`)
			})

			quarters, err := yahoo.QuarterlyFinancials(ctx, "EQR")
			Expect(err).NotTo(HaveOccurred())
			Expect(quarters).To(HaveLen(3))
			Expect(quarters[0].QuarterEnd.Format("2006-01-02")).To(Equal("2024-03-31"))
			Expect(*quarters[0].NetIncome).To(Equal(305000000.0))
			Expect(quarters[1].NetIncome).To(BeNil())
		})

		It("returns an error for an invalid status code", func() {
			_, err := yahoo.QuarterlyFinancials(ctx, "EQR")
			Expect(err).To(MatchError(ErrInvalidStatusCode))
		})
	})

	Describe("SharesSources", func() {
		It("exposes the three sources in fallback priority order", func() {
			sources := yahoo.SharesSources()
			Expect(sources).To(HaveLen(3))
			Expect(sources[0].Name()).To(Equal("info"))
			Expect(sources[1].Name()).To(Equal("sharesHistory"))
			Expect(sources[2].Name()).To(Equal("fastInfo"))
		})

		It("reads the info lookup from quoteSummary statistics", func() {
			mux.HandleFunc("/v10/finance/quoteSummary/EQR", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"quoteSummary":{"result":[{"defaultKeyStatistics":{"sharesOutstanding":{"raw":380000000}}}],"error":null}}`)
			})

			shares, ok, err := yahoo.SharesSources()[0].Shares(ctx, "EQR")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(shares).To(Equal(380000000.0))
		})

		It("reports null when the statistics module lacks a share count", func() {
			mux.HandleFunc("/v10/finance/quoteSummary/EQR", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"quoteSummary":{"result":[{"defaultKeyStatistics":{}}],"error":null}}`)
			})

			_, ok, err := yahoo.SharesSources()[0].Shares(ctx, "EQR")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("takes the most recent reported value from the shares history", func() {
			mux.HandleFunc("/ws/fundamentals-timeseries/v1/finance/timeseries/EQR", func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Query().Get("type")).To(Equal("shares"))
				fmt.Fprint(w, `{"timeseries":{"result":[{"shares":[
{"asOfDate":"2023-12-31","reportedValue":{"raw":375000000}},
{"asOfDate":"2024-12-31","reportedValue":{"raw":380000000}},
{"asOfDate":"2025-03-31","reportedValue":null}]}],"error":null}}`)
			})

			shares, ok, err := yahoo.SharesSources()[1].Shares(ctx, "EQR")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(shares).To(Equal(380000000.0))
		})

		It("matches the requested symbol in the bulk quote response", func() {
			mux.HandleFunc("/v7/finance/quote", func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, `{"quoteResponse":{"result":[
{"symbol":"AVB","sharesOutstanding":142000000},
{"symbol":"EQR","sharesOutstanding":380000000}],"error":null}}`)
			})

			shares, ok, err := yahoo.SharesSources()[2].Shares(ctx, "EQR")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(shares).To(Equal(380000000.0))
		})
	})
})
