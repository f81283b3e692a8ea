package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/tui/views/stores"
)

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Look up and list nearby stores",
}

var storesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch stores around the current position and save them",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := s.advisor(cmd.Context())
		if err != nil {
			return err
		}
		nearest, err := svc.RefreshStores(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registered %d stores\n", svc.Registry().Len())
		printDistances(cmd.OutOrStdout(), nearest)
		return nil
	},
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the saved stores",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := s.advisor(cmd.Context())
		if err != nil {
			return err
		}
		all := svc.Registry().Current()
		if len(all) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stores saved. Run \"stockup stores refresh\".")
			return nil
		}
		t := newTable("ID", "Store", "Address", "Position")
		for _, st := range all {
			t.Row(st.ID, st.Name, st.Address, st.Coordinate().String())
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.String())
		return nil
	},
}

var storesNearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Rank saved stores by distance from the current position",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := s.advisor(cmd.Context())
		if err != nil {
			return err
		}
		nearest, err := svc.Nearest(cmd.Context())
		if err != nil {
			return err
		}
		printDistances(cmd.OutOrStdout(), nearest)
		return nil
	},
}

func init() {
	storesCmd.AddCommand(storesRefreshCmd, storesListCmd, storesNearestCmd)
}

func printDistances(w io.Writer, ranked []models.StoreDistance) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No stores nearby.")
		return
	}
	t := newTable("#", "Store", "Distance", "Address")
	for i, d := range ranked {
		t.Row(fmt.Sprint(i+1), d.Store.Name, stores.FormatDistance(d.Meters), d.Store.Address)
	}
	fmt.Fprintln(w, t.String())
}
