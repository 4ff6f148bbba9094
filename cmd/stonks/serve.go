package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/alinski29/stonks/internal/api"
	"github.com/alinski29/stonks/internal/store"
)

func newServeCommand(stderr io.Writer, a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only HTTP API over the configured stores",
		RunE: func(cmd *cobra.Command, args []string) error {
			descriptors, err := a.cfg.Descriptors()
			if err != nil {
				return err
			}
			if len(descriptors) == 0 {
				return fmt.Errorf("no stores configured")
			}

			// Servers log JSON unless the caller asked for something else.
			if !cmd.Root().PersistentFlags().Changed("log-format") {
				setupLogging(stderr, a.effectiveLogLevel(), "json")
			}

			stores := make(map[string]store.Store, len(descriptors))
			for name, d := range descriptors {
				stores[name] = d
			}
			if port == 0 {
				port = a.cfg.Server.Port
			}
			return api.NewServer(stores, port).Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default from configuration)")
	return cmd
}
