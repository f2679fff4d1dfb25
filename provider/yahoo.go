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
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	ErrInvalidStatusCode = errors.New("invalid status code received")
	ErrEmptyResponse     = errors.New("response contained no results")
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// Yahoo queries the unofficial Yahoo Finance REST endpoints. These are
// the same endpoints the yfinance python package is built on; none of
// them require an API key but they do throttle aggressively, so all
// requests go through a shared rate limiter.
type Yahoo struct {
	client  *resty.Client
	limiter *rate.Limiter
}

// NewYahoo creates a Yahoo client limited to rateLimit requests per
// minute. Values <= 0 select a conservative default.
func NewYahoo(rateLimit int) *Yahoo {
	if rateLimit <= 0 {
		rateLimit = 60
	}

	client := resty.New().
		SetBaseURL(yahooBaseURL).
		SetHeader("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) reitdata/1.0").
		SetTimeout(30 * time.Second)

	return &Yahoo{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(rateLimit)/float64(61)), 1),
	}
}

func (yahoo *Yahoo) Name() string {
	return "yahoo"
}

// Private response shapes

type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"chart"`
}

type yahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooTimeseriesValue struct {
	AsOfDate      string `json:"asOfDate"`
	ReportedValue *struct {
		Raw float64 `json:"raw"`
	} `json:"reportedValue"`
}

type yahooTimeseriesResponse struct {
	Timeseries struct {
		Result []struct {
			QuarterlyNetIncome []*yahooTimeseriesValue `json:"quarterlyNetIncome"`
			Shares             []*yahooTimeseriesValue `json:"shares"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"timeseries"`
}

type yahooQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			DefaultKeyStatistics struct {
				SharesOutstanding *struct {
					Raw float64 `json:"raw"`
				} `json:"sharesOutstanding"`
			} `json:"defaultKeyStatistics"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"quoteSummary"`
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol            string   `json:"symbol"`
			SharesOutstanding *float64 `json:"sharesOutstanding"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"quoteResponse"`
}

// PriceHistory fetches the close-price series for each ticker over the
// lookback period (e.g. "5y") at the given bar interval (e.g. "1wk").
// A ticker that errors or returns no bars is logged and omitted from
// the result; it does not fail the batch.
func (yahoo *Yahoo) PriceHistory(ctx context.Context, tickers []string, lookback string, interval string) (map[string][]ClosePoint, error) {
	logger := zerolog.Ctx(ctx)

	series := make(map[string][]ClosePoint, len(tickers))

	for _, ticker := range tickers {
		if err := yahoo.limiter.Wait(ctx); err != nil {
			return series, err
		}

		resp, err := yahoo.client.R().
			SetContext(ctx).
			SetQueryParam("range", lookback).
			SetQueryParam("interval", interval).
			Get(fmt.Sprintf("/v8/finance/chart/%s", ticker))
		if err != nil {
			logger.Error().Err(err).Str("Ticker", ticker).Msg("resty returned an error when querying v8/finance/chart")
			continue
		}

		if resp.StatusCode() >= 300 {
			logger.Error().Int("StatusCode", resp.StatusCode()).Str("Ticker", ticker).
				Msg("received an invalid status code when querying the chart endpoint")
			continue
		}

		var respContent yahooChartResponse
		if err := json.Unmarshal(resp.Body(), &respContent); err != nil {
			logger.Error().Err(err).Str("Ticker", ticker).Msg("could not unmarshal chart response")
			continue
		}

		if respContent.Chart.Error != nil {
			logger.Error().Str("Ticker", ticker).Str("Code", respContent.Chart.Error.Code).
				Str("Description", respContent.Chart.Error.Description).Msg("chart endpoint returned an error")
			continue
		}

		if len(respContent.Chart.Result) == 0 {
			logger.Warn().Str("Ticker", ticker).Msg("chart endpoint returned no result for ticker")
			continue
		}

		result := respContent.Chart.Result[0]
		if len(result.Indicators.Quote) == 0 {
			continue
		}

		closes := result.Indicators.Quote[0].Close
		points := make([]ClosePoint, 0, len(result.Timestamp))
		for idx, ts := range result.Timestamp {
			var close *float64
			if idx < len(closes) {
				close = closes[idx]
			}
			points = append(points, ClosePoint{
				Date:  time.Unix(ts, 0).UTC(),
				Close: close,
			})
		}

		series[ticker] = points
	}

	return series, nil
}

// QuarterlyFinancials fetches reported quarterly net income from the
// fundamentals timeseries endpoint.
func (yahoo *Yahoo) QuarterlyFinancials(ctx context.Context, ticker string) ([]QuarterlyIncome, error) {
	respContent, err := yahoo.timeseries(ctx, ticker, "quarterlyNetIncome")
	if err != nil {
		return nil, err
	}

	if len(respContent.Timeseries.Result) == 0 {
		return []QuarterlyIncome{}, nil
	}

	rows := respContent.Timeseries.Result[0].QuarterlyNetIncome
	quarters := make([]QuarterlyIncome, 0, len(rows))

	for _, row := range rows {
		if row == nil {
			continue
		}

		quarterEnd, err := time.Parse("2006-01-02", row.AsOfDate)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("Ticker", ticker).Str("AsOfDate", row.AsOfDate).
				Msg("could not parse quarter end date from timeseries row")
			continue
		}

		quarter := QuarterlyIncome{QuarterEnd: quarterEnd}
		if row.ReportedValue != nil {
			value := row.ReportedValue.Raw
			quarter.NetIncome = &value
		}

		quarters = append(quarters, quarter)
	}

	return quarters, nil
}

// SharesSources returns the three shares-outstanding lookups in the
// order they should be tried: the company info lookup first, then the
// historical shares series, then the lightweight quote summary.
func (yahoo *Yahoo) SharesSources() []SharesSource {
	return []SharesSource{
		&yahooInfoShares{yahoo: yahoo},
		&yahooHistoryShares{yahoo: yahoo},
		&yahooFastInfoShares{yahoo: yahoo},
	}
}

func (yahoo *Yahoo) timeseries(ctx context.Context, ticker string, seriesType string) (*yahooTimeseriesResponse, error) {
	if err := yahoo.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	resp, err := yahoo.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", ticker).
		SetQueryParam("type", seriesType).
		SetQueryParam("period1", fmt.Sprintf("%d", now.AddDate(-6, 0, 0).Unix())).
		SetQueryParam("period2", fmt.Sprintf("%d", now.Unix())).
		Get(fmt.Sprintf("/ws/fundamentals-timeseries/v1/finance/timeseries/%s", ticker))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("%w (%d): %s", ErrInvalidStatusCode, resp.StatusCode(), string(resp.Body()))
	}

	var respContent yahooTimeseriesResponse
	if err := json.Unmarshal(resp.Body(), &respContent); err != nil {
		return nil, err
	}

	if respContent.Timeseries.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResponse, respContent.Timeseries.Error.Description)
	}

	return &respContent, nil
}

// yahooInfoShares reads sharesOutstanding from the quoteSummary company
// statistics module.
type yahooInfoShares struct {
	yahoo *Yahoo
}

func (src *yahooInfoShares) Name() string { return "info" }

func (src *yahooInfoShares) Shares(ctx context.Context, ticker string) (float64, bool, error) {
	if err := src.yahoo.limiter.Wait(ctx); err != nil {
		return 0, false, err
	}

	resp, err := src.yahoo.client.R().
		SetContext(ctx).
		SetQueryParam("modules", "defaultKeyStatistics").
		Get(fmt.Sprintf("/v10/finance/quoteSummary/%s", ticker))
	if err != nil {
		return 0, false, err
	}

	if resp.StatusCode() >= 300 {
		return 0, false, fmt.Errorf("%w (%d)", ErrInvalidStatusCode, resp.StatusCode())
	}

	var respContent yahooQuoteSummaryResponse
	if err := json.Unmarshal(resp.Body(), &respContent); err != nil {
		return 0, false, err
	}

	if len(respContent.QuoteSummary.Result) == 0 {
		return 0, false, nil
	}

	shares := respContent.QuoteSummary.Result[0].DefaultKeyStatistics.SharesOutstanding
	if shares == nil {
		return 0, false, nil
	}

	return shares.Raw, true, nil
}

// yahooHistoryShares reads the share-count timeseries and takes the most
// recent observation.
type yahooHistoryShares struct {
	yahoo *Yahoo
}

func (src *yahooHistoryShares) Name() string { return "sharesHistory" }

func (src *yahooHistoryShares) Shares(ctx context.Context, ticker string) (float64, bool, error) {
	respContent, err := src.yahoo.timeseries(ctx, ticker, "shares")
	if err != nil {
		return 0, false, err
	}

	if len(respContent.Timeseries.Result) == 0 {
		return 0, false, nil
	}

	// rows are ordered oldest first; walk backwards to the latest
	// reported value
	rows := respContent.Timeseries.Result[0].Shares
	for idx := len(rows) - 1; idx >= 0; idx-- {
		if rows[idx] != nil && rows[idx].ReportedValue != nil {
			return rows[idx].ReportedValue.Raw, true, nil
		}
	}

	return 0, false, nil
}

// yahooFastInfoShares reads sharesOutstanding from the bulk quote
// endpoint, which is cheap but often missing the field.
type yahooFastInfoShares struct {
	yahoo *Yahoo
}

func (src *yahooFastInfoShares) Name() string { return "fastInfo" }

func (src *yahooFastInfoShares) Shares(ctx context.Context, ticker string) (float64, bool, error) {
	if err := src.yahoo.limiter.Wait(ctx); err != nil {
		return 0, false, err
	}

	resp, err := src.yahoo.client.R().
		SetContext(ctx).
		SetQueryParam("symbols", ticker).
		Get("/v7/finance/quote")
	if err != nil {
		return 0, false, err
	}

	if resp.StatusCode() >= 300 {
		return 0, false, fmt.Errorf("%w (%d)", ErrInvalidStatusCode, resp.StatusCode())
	}

	var respContent yahooQuoteResponse
	if err := json.Unmarshal(resp.Body(), &respContent); err != nil {
		return 0, false, err
	}

	for _, result := range respContent.QuoteResponse.Result {
		if result.Symbol == ticker && result.SharesOutstanding != nil {
			return *result.SharesOutstanding, true, nil
		}
	}

	return 0, false, nil
}
