package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// measurementsFromFlags builds the request measurement set, emitting one
// entry per dimension flag the caller actually set.
func measurementsFromFlags(cmd *cobra.Command, count, weight, volume float64, weightUnit, volumeUnit string) []map[string]interface{} {
	var out []map[string]interface{}
	if cmd.Flags().Changed("count") {
		out = append(out, map[string]interface{}{"type": "count", "value": count, "unit": "units"})
	}
	if cmd.Flags().Changed("weight") {
		out = append(out, map[string]interface{}{"type": "weight", "value": weight, "unit": weightUnit})
	}
	if cmd.Flags().Changed("volume") {
		out = append(out, map[string]interface{}{"type": "volume", "value": volume, "unit": volumeUnit})
	}
	return out
}

func splitTags(tags string) []string {
	parts := strings.Split(tags, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func init() {
	itemsCmd := &cobra.Command{Use: "items", Short: "Inventory item operations"}

	// add
	var (
		name, location, unit, useBy, tags, notes string
		quantity, count, weight, volume          float64
		weightUnit, volumeUnit                   string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add an inventory item",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"name": name, "quantity": quantity}
			if location != "" {
				payload["locationId"] = location
			}
			if unit != "" {
				payload["unit"] = unit
			}
			if useBy != "" {
				payload["useByDate"] = useBy
			}
			if tags != "" {
				payload["tags"] = splitTags(tags)
			}
			if notes != "" {
				payload["notes"] = notes
			}
			if m := measurementsFromFlags(cmd, count, weight, volume, weightUnit, volumeUnit); len(m) > 0 {
				payload["measurements"] = m
			}
			data, err := doPostJSON("/v0/items", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Item name (required)")
	addCmd.Flags().StringVarP(&location, "location", "l", "", "Location ID")
	addCmd.Flags().Float64VarP(&quantity, "quantity", "q", 1, "Quantity (legacy)")
	addCmd.Flags().StringVarP(&unit, "unit", "u", "", "Unit of measurement (legacy)")
	addCmd.Flags().Float64Var(&count, "count", 0, "Count value")
	addCmd.Flags().Float64Var(&weight, "weight", 0, "Weight value")
	addCmd.Flags().StringVar(&weightUnit, "weight-unit", "lb", "Weight unit (g, kg, oz, lb)")
	addCmd.Flags().Float64Var(&volume, "volume", 0, "Volume value")
	addCmd.Flags().StringVar(&volumeUnit, "volume-unit", "cup", "Volume unit (ml, l, tsp, tbsp, fl oz, cup, pint, quart, gallon)")
	addCmd.Flags().StringVar(&useBy, "use-by", "", "Use-by date (YYYY-MM-DD)")
	addCmd.Flags().StringVarP(&tags, "tags", "t", "", "Comma-separated tags")
	addCmd.Flags().StringVar(&notes, "notes", "", "Additional notes")
	_ = addCmd.MarkFlagRequired("name")
	itemsCmd.AddCommand(addCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all items",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/items", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	itemsCmd.AddCommand(listCmd)

	// show
	showCmd := &cobra.Command{
		Use:   "show ITEM_ID",
		Short: "Show an item by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/items/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	itemsCmd.AddCommand(showCmd)

	// update
	var (
		upName, upLocation, upUnit, upUseBy, upTags, upNotes string
		upQuantity, upCount, upWeight, upVolume              float64
		upWeightUnit, upVolumeUnit                           string
	)
	updateCmd := &cobra.Command{
		Use:   "update ITEM_ID",
		Short: "Update an item (only supplied flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("name") {
				payload["name"] = upName
			}
			if cmd.Flags().Changed("location") {
				payload["locationId"] = upLocation
			}
			if cmd.Flags().Changed("quantity") {
				payload["quantity"] = upQuantity
			}
			if cmd.Flags().Changed("unit") {
				payload["unit"] = upUnit
			}
			if cmd.Flags().Changed("use-by") {
				payload["useByDate"] = upUseBy
			}
			if cmd.Flags().Changed("tags") {
				payload["tags"] = splitTags(upTags)
			}
			if cmd.Flags().Changed("notes") {
				payload["notes"] = upNotes
			}
			if m := measurementsFromFlags(cmd, upCount, upWeight, upVolume, upWeightUnit, upVolumeUnit); len(m) > 0 {
				payload["measurements"] = m
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update")
			}
			data, err := doPatchJSON("/v0/items/"+args[0], payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&upName, "name", "n", "", "New item name")
	updateCmd.Flags().StringVarP(&upLocation, "location", "l", "", "New location ID")
	updateCmd.Flags().Float64VarP(&upQuantity, "quantity", "q", 0, "New quantity (legacy)")
	updateCmd.Flags().StringVarP(&upUnit, "unit", "u", "", "New unit (legacy)")
	updateCmd.Flags().Float64Var(&upCount, "count", 0, "Count value")
	updateCmd.Flags().Float64Var(&upWeight, "weight", 0, "Weight value")
	updateCmd.Flags().StringVar(&upWeightUnit, "weight-unit", "lb", "Weight unit (g, kg, oz, lb)")
	updateCmd.Flags().Float64Var(&upVolume, "volume", 0, "Volume value")
	updateCmd.Flags().StringVar(&upVolumeUnit, "volume-unit", "cup", "Volume unit (ml, l, tsp, tbsp, fl oz, cup, pint, quart, gallon)")
	updateCmd.Flags().StringVar(&upUseBy, "use-by", "", "New use-by date (YYYY-MM-DD)")
	updateCmd.Flags().StringVarP(&upTags, "tags", "t", "", "New comma-separated tags")
	updateCmd.Flags().StringVar(&upNotes, "notes", "", "New notes")
	itemsCmd.AddCommand(updateCmd)

	// rm
	rmCmd := &cobra.Command{
		Use:   "rm ITEM_ID",
		Short: "Delete an item and its tag associations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doDelete("/v0/items/" + args[0])
		},
	}
	itemsCmd.AddCommand(rmCmd)

	// by-location
	byLocationCmd := &cobra.Command{
		Use:   "by-location LOCATION_ID",
		Short: "List items in a location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/items/by-location/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	itemsCmd.AddCommand(byLocationCmd)

	// by-tag
	byTagCmd := &cobra.Command{
		Use:   "by-tag TAG",
		Short: "List items carrying a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/items/by-tag/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	itemsCmd.AddCommand(byTagCmd)

	// by-name
	byNameCmd := &cobra.Command{
		Use:   "by-name NAME",
		Short: "List items by name (case-insensitive)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/items/by-name/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	itemsCmd.AddCommand(byNameCmd)

	// expiring
	var expDays int
	var expLocation string
	expiringCmd := &cobra.Command{
		Use:   "expiring",
		Short: "List items due within a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := map[string]string{}
			if cmd.Flags().Changed("days") {
				query["days"] = strconv.Itoa(expDays)
			}
			if expLocation != "" {
				query["locationId"] = expLocation
			}
			data, err := doGet("/v0/items/expiring", query)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	expiringCmd.Flags().IntVarP(&expDays, "days", "d", 7, "Number of days to look ahead")
	expiringCmd.Flags().StringVarP(&expLocation, "location", "l", "", "Filter by location ID")
	itemsCmd.AddCommand(expiringCmd)

	rootCmd.AddCommand(itemsCmd)
}
