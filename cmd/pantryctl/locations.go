package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	locationsCmd := &cobra.Command{Use: "locations", Short: "Storage location operations"}

	// add
	var name, description string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a storage location",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{"name": name}
			if description != "" {
				payload["description"] = description
			}
			data, err := doPostJSON("/v0/locations", payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	addCmd.Flags().StringVarP(&name, "name", "n", "", "Location name (required)")
	addCmd.Flags().StringVarP(&description, "description", "d", "", "Location description")
	_ = addCmd.MarkFlagRequired("name")
	locationsCmd.AddCommand(addCmd)

	// list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List storage locations",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/locations", nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	locationsCmd.AddCommand(listCmd)

	// show
	showCmd := &cobra.Command{
		Use:   "show LOCATION_ID",
		Short: "Show a location by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := doGet("/v0/locations/"+args[0], nil)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	locationsCmd.AddCommand(showCmd)

	// update
	var newName, newDescription string
	updateCmd := &cobra.Command{
		Use:   "update LOCATION_ID",
		Short: "Update a location (only supplied flags change)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]interface{}{}
			if cmd.Flags().Changed("name") {
				payload["name"] = newName
			}
			if cmd.Flags().Changed("description") {
				payload["description"] = newDescription
			}
			if len(payload) == 0 {
				return fmt.Errorf("nothing to update; pass --name or --description")
			}
			data, err := doPatchJSON("/v0/locations/"+args[0], payload)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&newName, "name", "n", "", "New location name")
	updateCmd.Flags().StringVarP(&newDescription, "description", "d", "", "New location description")
	locationsCmd.AddCommand(updateCmd)

	// rm
	rmCmd := &cobra.Command{
		Use:   "rm LOCATION_ID",
		Short: "Delete a location (items keep their location reference)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doDelete("/v0/locations/" + args[0])
		},
	}
	locationsCmd.AddCommand(rmCmd)

	rootCmd.AddCommand(locationsCmd)
}
