package provider

import (
	"encoding/json"
	"time"

	"github.com/alinski29/stonks/internal/fetch"
	"github.com/alinski29/stonks/internal/model"
)

// Yahoo builds the resource specs served by the Yahoo Finance API: daily
// prices through the multi-symbol spark endpoint and asset profiles through
// quoteSummary. The token is optional for the public endpoints.
func Yahoo(cfg Settings) []fetch.ResourceSpec {
	priceBatch := cfg.MaxBatchSize
	if priceBatch < 1 {
		priceBatch = 10
	}
	var headers map[string]string
	if cfg.Token != "" {
		headers = map[string]string{"x-api-key": cfg.Token}
	}
	return []fetch.ResourceSpec{
		{
			Name:       "yahoo.price",
			RecordType: model.AssetPrice,
			URL:        "https://query1.finance.yahoo.com/v7/finance/spark",
			Headers:    headers,
			Query: map[string]string{
				"symbols":  "{symbols}",
				"range":    "{range}",
				"interval": "{interval}",
			},
			Params:       map[string]string{"range": "1y", "interval": "1d"},
			MaxBatchSize: priceBatch,
			MaxRetries:   cfg.MaxRetries,
			Priority:     cfg.Priority,
			Parse:        parseYahooPrices,
		},
		{
			Name:       "yahoo.info",
			RecordType: model.AssetInfo,
			URL:        "https://query1.finance.yahoo.com/v10/finance/quoteSummary/{symbol}",
			Headers:    headers,
			Query: map[string]string{
				"modules": "assetProfile,price",
			},
			MaxBatchSize: 1, // quoteSummary serves a single symbol per call
			MaxRetries:   cfg.MaxRetries,
			Priority:     cfg.Priority,
			Parse:        parseYahooInfo,
		},
	}
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooSpark struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Timestamp []int64 `json:"timestamp"`
				Meta      struct {
					Symbol   string `json:"symbol"`
					Currency string `json:"currency"`
				} `json:"meta"`
				Indicators struct {
					Quote []struct {
						Open   []*float64 `json:"open"`
						High   []*float64 `json:"high"`
						Low    []*float64 `json:"low"`
						Close  []*float64 `json:"close"`
						Volume []*int64   `json:"volume"`
					} `json:"quote"`
					AdjClose []struct {
						AdjClose []*float64 `json:"adjclose"`
					} `json:"adjclose"`
				} `json:"indicators"`
			} `json:"response"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"spark"`
}

func parseYahooPrices(body string, params map[string]string) ([]model.Record, error) {
	var env yahooSpark
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &ParseError{Resource: "yahoo.price", Detail: "invalid json", Err: err}
	}
	if env.Spark.Error != nil {
		return nil, &ParseError{Resource: "yahoo.price", Detail: env.Spark.Error.Code + " " + env.Spark.Error.Description}
	}
	if len(env.Spark.Result) == 0 {
		return nil, &ParseError{Resource: "yahoo.price", Detail: "empty result"}
	}

	w := windowOf(params)
	var out []model.Record
	for _, res := range env.Spark.Result {
		for _, chart := range res.Response {
			if len(chart.Indicators.Quote) == 0 {
				continue
			}
			quote := chart.Indicators.Quote[0]
			var adj []*float64
			if len(chart.Indicators.AdjClose) > 0 {
				adj = chart.Indicators.AdjClose[0].AdjClose
			}
			symbol := res.Symbol
			if symbol == "" {
				symbol = chart.Meta.Symbol
			}
			if symbol == "" {
				continue
			}
			for i, ts := range chart.Timestamp {
				closePrice := floatAt(quote.Close, i)
				if closePrice == nil {
					continue // no close means no observation for that day
				}
				date := model.DateOf(time.Unix(ts, 0))
				if !w.contains(date) {
					continue
				}
				rec := model.Record{
					"symbol": symbol,
					"date":   date,
					"close":  *closePrice,
				}
				setFloat(rec, "open", floatAt(quote.Open, i))
				setFloat(rec, "high", floatAt(quote.High, i))
				setFloat(rec, "low", floatAt(quote.Low, i))
				setFloat(rec, "close_adjusted", floatAt(adj, i))
				if v := intAt(quote.Volume, i); v != nil {
					rec["volume"] = *v
				}
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

type yahooSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile *struct {
				Sector    string `json:"sector"`
				Industry  string `json:"industry"`
				Country   string `json:"country"`
				Employees *int64 `json:"fullTimeEmployees"`
			} `json:"assetProfile"`
			Price *struct {
				Symbol    string `json:"symbol"`
				Currency  string `json:"currency"`
				ShortName string `json:"shortName"`
				QuoteType string `json:"quoteType"`
				Exchange  string `json:"exchangeName"`
			} `json:"price"`
		} `json:"result"`
		Error *yahooError `json:"error"`
	} `json:"quoteSummary"`
}

func parseYahooInfo(body string, params map[string]string) ([]model.Record, error) {
	var env yahooSummary
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		return nil, &ParseError{Resource: "yahoo.info", Detail: "invalid json", Err: err}
	}
	if env.QuoteSummary.Error != nil {
		return nil, &ParseError{Resource: "yahoo.info", Detail: env.QuoteSummary.Error.Code + " " + env.QuoteSummary.Error.Description}
	}
	if len(env.QuoteSummary.Result) == 0 {
		return nil, &ParseError{Resource: "yahoo.info", Detail: "empty result"}
	}

	var out []model.Record
	for _, res := range env.QuoteSummary.Result {
		if res.Price == nil || res.Price.Symbol == "" || res.Price.Currency == "" {
			return nil, &ParseError{Resource: "yahoo.info", Detail: "missing price block"}
		}
		rec := model.Record{
			"symbol":   res.Price.Symbol,
			"currency": res.Price.Currency,
		}
		setString(rec, "name", res.Price.ShortName)
		setString(rec, "type", res.Price.QuoteType)
		setString(rec, "exchange", res.Price.Exchange)
		if p := res.AssetProfile; p != nil {
			setString(rec, "sector", p.Sector)
			setString(rec, "industry", p.Industry)
			setString(rec, "country", p.Country)
			if p.Employees != nil {
				rec["employees"] = *p.Employees
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

func floatAt(vs []*float64, i int) *float64 {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}

func intAt(vs []*int64, i int) *int64 {
	if i < len(vs) {
		return vs[i]
	}
	return nil
}

func setFloat(rec model.Record, name string, v *float64) {
	if v != nil {
		rec[name] = *v
	}
}

func setString(rec model.Record, name, v string) {
	if v != "" {
		rec[name] = v
	}
}
