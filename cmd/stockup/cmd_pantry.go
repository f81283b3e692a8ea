package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/stockup/stockup/internal/models"
	"github.com/stockup/stockup/internal/services/pantry"
)

var pantryCmd = &cobra.Command{
	Use:   "pantry",
	Short: "List and edit tracked pantry items",
}

var pantryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked items and their stock level",
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
		printItems(cmd.OutOrStdout(), svc.Pantry().List())
		return nil
	},
}

var setInput pantry.SetItemInput

var pantrySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Add an item or replace one by --id",
	Example: `  stockup pantry set --name Milk --qty 1 --threshold 2 --category Dairy
  stockup pantry set --id 2f6c... --name Milk --qty 4 --threshold 2`,
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
		item, err := svc.Pantry().Set(cmd.Context(), setInput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s): %d on hand, %s\n",
			item.Name, item.ID, item.Quantity, item.StockLevel())
		return nil
	},
}

var pantryRemoveCmd = &cobra.Command{
	Use:     "remove ID",
	Aliases: []string{"rm"},
	Short:   "Stop tracking an item",
	Args:    cobra.ExactArgs(1),
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
		if err := svc.Pantry().Remove(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

var groceryCmd = &cobra.Command{
	Use:   "grocery",
	Short: "Print what needs to be bought",
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
		printGroceryList(cmd.OutOrStdout(), svc.Pantry().GroceryList())
		return nil
	},
}

func init() {
	f := pantrySetCmd.Flags()
	f.StringVar(&setInput.ID, "id", "", "ID of the item to replace; empty adds a new item")
	f.StringVar(&setInput.Name, "name", "", "Item name")
	f.IntVar(&setInput.Quantity, "qty", 0, "Quantity on hand")
	f.IntVar(&setInput.Threshold, "threshold", 1, "Restock threshold")
	f.StringVar(&setInput.Category, "category", models.CategoryEssential, "Grocery list category")
	_ = pantrySetCmd.MarkFlagRequired("name")

	pantryCmd.AddCommand(pantryListCmd, pantrySetCmd, pantryRemoveCmd)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func printItems(w io.Writer, items []models.PantryItem) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No items tracked.")
		return
	}
	t := newTable("ID", "Item", "Qty", "Min", "Level", "Category")
	for _, item := range items {
		t.Row(item.ID, item.Name, strconv.Itoa(item.Quantity), strconv.Itoa(item.Threshold),
			string(item.StockLevel()), item.Category)
	}
	fmt.Fprintln(w, t.String())
}

func printGroceryList(w io.Writer, list pantry.GroceryList) {
	if list.Total == 0 {
		fmt.Fprintln(w, "Nothing to buy. The pantry is stocked.")
		return
	}
	fmt.Fprintf(w, "%d items to buy\n", list.Total)
	for _, g := range list.Groups {
		fmt.Fprintf(w, "\n%s\n", g.Category)
		for _, e := range g.Entries {
			fmt.Fprintf(w, "  [ ] %s x%d (%s)\n", e.Item.Name, e.Quantity, e.Level)
		}
	}
}
