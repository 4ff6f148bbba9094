package main

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/alinski29/stonks/internal/ingest"
	"github.com/alinski29/stonks/internal/model"
	"github.com/alinski29/stonks/internal/store"
	"github.com/alinski29/stonks/internal/transport"
)

func newUpdateCommand(a *app) *cobra.Command {
	var (
		typeName string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "update [SYMBOL...]",
		Short: "Bring configured stores up to date",
		Long: `update reconciles each configured store against the last business day
and fetches only the date ranges that are missing. With symbol arguments
only the store selected by --type is updated, and symbols it does not
track yet are added with their full history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			stores, err := a.cfg.Descriptors()
			if err != nil {
				return err
			}
			if len(stores) == 0 {
				return fmt.Errorf("no stores configured")
			}

			selected := make(map[string]*store.Descriptor)
			if len(args) > 0 || cmd.Flags().Changed("type") {
				st, ok := stores[typeName]
				if !ok {
					return fmt.Errorf("no store configured for record type %q", typeName)
				}
				selected[typeName] = st
			} else {
				selected = stores
			}

			requested := directivesFor(args, nil, nil)
			updater := ingest.New(a.cfg.Registry(), transport.NewHTTPSender(timeout))

			names := make([]string, 0, len(selected))
			for name := range selected {
				names = append(names, name)
			}
			sort.Strings(names)

			for _, name := range names {
				n, err := updater.Update(cmd.Context(), selected[name], requested)
				if err != nil {
					return fmt.Errorf("update %s: %w", name, err)
				}
				slog.Info("store updated", "type", name, "fetched", n)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&typeName, "type", "t", model.AssetPrice.Name, "record type to update when symbols are given")
	flags.DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	return cmd
}
