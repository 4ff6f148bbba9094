package provider

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/alinski29/stonks/internal/fetch"
	"github.com/alinski29/stonks/internal/model"
)

const alphavantageURL = "https://www.alphavantage.co/query"

// AlphaVantage builds the resource specs served by the Alpha Vantage API:
// adjusted daily prices, company overviews and daily FX rates. Every
// endpoint is single-symbol and requires an API token.
func AlphaVantage(cfg Settings) []fetch.ResourceSpec {
	params := map[string]string{"token": cfg.Token, "outputsize": "full"}
	return []fetch.ResourceSpec{
		{
			Name:       "alphavantage.price",
			RecordType: model.AssetPrice,
			URL:        alphavantageURL,
			Query: map[string]string{
				"function":   "TIME_SERIES_DAILY_ADJUSTED",
				"symbol":     "{symbol}",
				"outputsize": "{outputsize}",
				"apikey":     "{token}",
			},
			Params:       params,
			MaxBatchSize: 1,
			MaxRetries:   cfg.MaxRetries,
			Priority:     cfg.Priority,
			Parse:        parseAlphavantagePrices,
		},
		{
			Name:       "alphavantage.info",
			RecordType: model.AssetInfo,
			URL:        alphavantageURL,
			Query: map[string]string{
				"function": "OVERVIEW",
				"symbol":   "{symbol}",
				"apikey":   "{token}",
			},
			Params:       params,
			MaxBatchSize: 1,
			MaxRetries:   cfg.MaxRetries,
			Priority:     cfg.Priority,
			Parse:        parseAlphavantageInfo,
		},
		{
			Name:       "alphavantage.exchange",
			RecordType: model.ExchangeRate,
			URL:        alphavantageURL,
			Query: map[string]string{
				"function":    "FX_DAILY",
				"from_symbol": "{base}",
				"to_symbol":   "{target}",
				"outputsize":  "{outputsize}",
				"apikey":      "{token}",
			},
			Params:       params,
			MaxBatchSize: 1,
			MaxRetries:   cfg.MaxRetries,
			Priority:     cfg.Priority,
			Parse:        parseAlphavantageExchange,
		},
	}
}

type avSeries struct {
	Meta         map[string]string            `json:"Meta Data"`
	Daily        map[string]map[string]string `json:"Time Series (Daily)"`
	FX           map[string]map[string]string `json:"Time Series FX (Daily)"`
	Note         string                       `json:"Note"`
	ErrorMessage string                       `json:"Error Message"`
}

func (s avSeries) check(resource string, rows map[string]map[string]string) error {
	if s.ErrorMessage != "" {
		return &ParseError{Resource: resource, Detail: s.ErrorMessage}
	}
	if len(rows) == 0 {
		detail := "no time series in response"
		if s.Note != "" {
			detail = s.Note // usually the rate limit notice
		}
		return &ParseError{Resource: resource, Detail: detail}
	}
	return nil
}

// sortedDays returns the series dates in ascending order so parsed output
// is deterministic.
func sortedDays(rows map[string]map[string]string) []string {
	days := make([]string, 0, len(rows))
	for d := range rows {
		days = append(days, d)
	}
	sort.Strings(days)
	return days
}

func parseAlphavantagePrices(body string, params map[string]string) ([]model.Record, error) {
	var env avSeries
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &ParseError{Resource: "alphavantage.price", Detail: "invalid json", Err: err}
	}
	if err := env.check("alphavantage.price", env.Daily); err != nil {
		return nil, err
	}

	symbol := env.Meta["2. Symbol"]
	if symbol == "" {
		symbol = params["symbol"]
	}
	w := windowOf(params)
	var out []model.Record
	for _, day := range sortedDays(env.Daily) {
		date, err := time.Parse(model.DateLayout, day)
		if err != nil {
			return nil, &ParseError{Resource: "alphavantage.price", Detail: "bad date " + day, Err: err}
		}
		date = date.UTC()
		if !w.contains(date) {
			continue
		}
		row := env.Daily[day]
		closePrice, ok := floatField(row, "4. close")
		if !ok {
			return nil, &ParseError{Resource: "alphavantage.price", Detail: "missing close for " + day}
		}
		rec := model.Record{
			"symbol": symbol,
			"date":   date,
			"close":  closePrice,
		}
		if v, ok := floatField(row, "1. open"); ok {
			rec["open"] = v
		}
		if v, ok := floatField(row, "2. high"); ok {
			rec["high"] = v
		}
		if v, ok := floatField(row, "3. low"); ok {
			rec["low"] = v
		}
		if v, ok := floatField(row, "5. adjusted close"); ok {
			rec["close_adjusted"] = v
		}
		if v, ok := intField(row, "6. volume"); ok {
			rec["volume"] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseAlphavantageExchange(body string, params map[string]string) ([]model.Record, error) {
	var env avSeries
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &ParseError{Resource: "alphavantage.exchange", Detail: "invalid json", Err: err}
	}
	if err := env.check("alphavantage.exchange", env.FX); err != nil {
		return nil, err
	}

	base := env.Meta["2. From Symbol"]
	target := env.Meta["3. To Symbol"]
	if base == "" {
		base = params["base"]
	}
	if target == "" {
		target = params["target"]
	}
	w := windowOf(params)
	var out []model.Record
	for _, day := range sortedDays(env.FX) {
		date, err := time.Parse(model.DateLayout, day)
		if err != nil {
			return nil, &ParseError{Resource: "alphavantage.exchange", Detail: "bad date " + day, Err: err}
		}
		date = date.UTC()
		if !w.contains(date) {
			continue
		}
		rate, ok := floatField(env.FX[day], "4. close")
		if !ok {
			return nil, &ParseError{Resource: "alphavantage.exchange", Detail: "missing close for " + day}
		}
		out = append(out, model.Record{
			"base":   base,
			"target": target,
			"date":   date,
			"rate":   rate,
		})
	}
	return out, nil
}

func parseAlphavantageInfo(body string, params map[string]string) ([]model.Record, error) {
	var raw map[string]string
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, &ParseError{Resource: "alphavantage.info", Detail: "invalid json", Err: err}
	}
	if msg := raw["Error Message"]; msg != "" {
		return nil, &ParseError{Resource: "alphavantage.info", Detail: msg}
	}
	if raw["Symbol"] == "" || raw["Currency"] == "" {
		return nil, &ParseError{Resource: "alphavantage.info", Detail: "incomplete overview"}
	}

	rec := model.Record{
		"symbol":   raw["Symbol"],
		"currency": raw["Currency"],
	}
	setString(rec, "name", raw["Name"])
	setString(rec, "type", raw["AssetType"])
	setString(rec, "exchange", raw["Exchange"])
	setString(rec, "sector", raw["Sector"])
	setString(rec, "industry", raw["Industry"])
	setString(rec, "country", raw["Country"])
	if v, ok := intField(raw, "FullTimeEmployees"); ok {
		rec["employees"] = v
	}
	return []model.Record{rec}, nil
}
