package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alinski29/stonks/internal/model"
)

func newShowCommand(stdout io.Writer, a *app) *cobra.Command {
	var (
		typeName string
		filters  []string
		output   string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print records from a configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.storeFor(typeName)
			if err != nil {
				return err
			}
			filter, err := parseFilters(filters)
			if err != nil {
				return err
			}

			recs, err := st.Load(filter)
			if err != nil {
				return err
			}
			sortRecords(recs, st.IDColumns(), st.TimeColumn())
			if limit > 0 && len(recs) > limit {
				recs = recs[len(recs)-limit:]
			}

			if output == "csv" {
				return writeCSV(stdout, st.RecordType(), recs)
			}
			renderTable(stdout, st.RecordType(), recs)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&typeName, "type", "t", model.AssetPrice.Name, "record type: asset_price, asset_info or exchange_rate")
	flags.StringArrayVarP(&filters, "filter", "f", nil, "partition filter, column=value[,value] (repeatable)")
	flags.StringVarP(&output, "output", "o", "table", "table or csv")
	flags.IntVarP(&limit, "limit", "n", 0, "print only the last N rows of the sorted output")
	return cmd
}

func parseFilters(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(pairs))
	for _, p := range pairs {
		col, vals, ok := strings.Cut(p, "=")
		if !ok || col == "" || vals == "" {
			return nil, fmt.Errorf("invalid filter %q, want column=value[,value]", p)
		}
		for _, v := range strings.Split(vals, ",") {
			if v != "" {
				out[col] = append(out[col], v)
			}
		}
	}
	return out, nil
}
