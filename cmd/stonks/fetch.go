package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/alinski29/stonks/internal/fetch"
	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/transport"
)

func newFetchCommand(stdout io.Writer, a *app) *cobra.Command {
	var (
		typeName string
		fromStr  string
		toStr    string
		output   string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "fetch SYMBOL...",
		Short: "Fetch records from a provider and print them",
		Long: `fetch asks the best-priority provider for the given symbols and prints
the records without touching any store. Symbols are plain ("AAPL") or
currency pairs ("EUR/USD") depending on the record type.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, ok := model.RecordTypeByName(typeName)
			if !ok {
				return fmt.Errorf("unknown record type %q", typeName)
			}
			from, err := parseDateFlag(fromStr)
			if err != nil {
				return err
			}
			to, err := parseDateFlag(toStr)
			if err != nil {
				return err
			}

			spec, err := a.cfg.Registry().Select(rt)
			if err != nil {
				return err
			}

			fetcher := fetch.New(transport.NewHTTPSender(timeout))
			recs, err := fetcher.Fetch(cmd.Context(), directivesFor(args, from, to), spec, fetch.Options{})
			if err != nil {
				return err
			}

			idCols, timeCol := seriesColumns(rt)
			sortRecords(recs, idCols, timeCol)
			if output == "csv" {
				return writeCSV(stdout, rt, recs)
			}
			renderTable(stdout, rt, recs)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&typeName, "type", "t", model.AssetPrice.Name, "record type: asset_price, asset_info or exchange_rate")
	flags.StringVar(&fromStr, "from", "", "inclusive lower date bound (YYYY-MM-DD)")
	flags.StringVar(&toStr, "to", "", "inclusive upper date bound (YYYY-MM-DD)")
	flags.StringVarP(&output, "output", "o", "table", "table or csv")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	return cmd
}

func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return &t, nil
}

func directivesFor(symbols []string, from, to *time.Time) []model.Directive {
	out := make([]model.Directive, len(symbols))
	for i, s := range symbols {
		out[i] = model.Directive{ID: model.ParseIdentifier(s), From: from, To: to}
	}
	return out
}
