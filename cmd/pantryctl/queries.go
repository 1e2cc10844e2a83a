package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	// search
	var name, location, tags, useByAfter, useByBefore string
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search items by name, location, tags and use-by range",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := map[string]string{}
			if name != "" {
				query["name"] = name
			}
			if location != "" {
				query["locationId"] = location
			}
			if tags != "" {
				query["tags"] = tags
			}
			if useByAfter != "" {
				query["useByAfter"] = useByAfter
			}
			if useByBefore != "" {
				query["useByBefore"] = useByBefore
			}
			data, err := doGet("/v0/items/search", query)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	searchCmd.Flags().StringVarP(&name, "name", "n", "", "Search by name")
	searchCmd.Flags().StringVarP(&location, "location", "l", "", "Filter by location ID")
	searchCmd.Flags().StringVarP(&tags, "tags", "t", "", "Filter by comma-separated tags (all must match)")
	searchCmd.Flags().StringVar(&useByAfter, "use-by-after", "", "Earliest use-by date (YYYY-MM-DD)")
	searchCmd.Flags().StringVar(&useByBefore, "use-by-before", "", "Latest use-by date (YYYY-MM-DD)")
	rootCmd.AddCommand(searchCmd)

	// aggregate
	var aggLocation, aggTag, countUnit, weightUnit, volumeUnit string
	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate inventory totals with optional unit preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := map[string]string{}
			if aggLocation != "" {
				query["locationId"] = aggLocation
			}
			if aggTag != "" {
				query["tag"] = aggTag
			}
			if countUnit != "" {
				query["countUnit"] = countUnit
			}
			if weightUnit != "" {
				query["weightUnit"] = weightUnit
			}
			if volumeUnit != "" {
				query["volumeUnit"] = volumeUnit
			}
			data, err := doGet("/v0/stats/aggregate", query)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	aggregateCmd.Flags().StringVarP(&aggLocation, "location", "l", "", "Filter by location ID")
	aggregateCmd.Flags().StringVarP(&aggTag, "tag", "t", "", "Filter by tag")
	aggregateCmd.Flags().StringVar(&countUnit, "count-unit", "", "Preferred count unit (units)")
	aggregateCmd.Flags().StringVar(&weightUnit, "weight-unit", "", "Preferred weight unit (g, kg, oz, lb)")
	aggregateCmd.Flags().StringVar(&volumeUnit, "volume-unit", "", "Preferred volume unit (ml, l, tsp, tbsp, fl oz, cup, pint, quart, gallon)")
	rootCmd.AddCommand(aggregateCmd)

	// health
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Report service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/health", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	rootCmd.AddCommand(healthCmd)
}
