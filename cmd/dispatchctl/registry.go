package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"technician-dispatch/pkg/registry"

	"github.com/spf13/cobra"
)

var registryPath string

var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Inspect and maintain the activity registry",
}

var registryValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check every activity and compile its input schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if len(reg.Activities) == 0 {
			return errors.New("registry contains no activities")
		}
		if problems := reg.Check(); len(problems) > 0 {
			for _, p := range problems {
				fmt.Fprintln(cmd.ErrOrStderr(), p)
			}
			return fmt.Errorf("registry validation failed with %d problem(s)", len(problems))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	},
}

var registryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered activities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTASK TYPE\tSTATUS\tVERSION\tTIMEOUT\tRETRIES")
		for _, a := range reg.Activities {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", a.ID, a.TaskType, a.ImplementationStatus, a.Version, a.Timeout, a.Retries)
		}
		return w.Flush()
	},
}

var registryUpdateCmd = &cobra.Command{
	Use:   "update <id> <field> <value>",
	Short: "Update one field of an activity (status, version, displayName, description, timeout, retries)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.LoadRegistry(registryPath)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Update(args[0], args[1], args[2]); err != nil {
			return err
		}
		if err := reg.Save(registryPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", args[0], args[1], args[2])
		return nil
	},
}

func init() {
	registryCmd.PersistentFlags().StringVarP(&registryPath, "path", "p", "configs/activity-registry.json", "Path to registry file")
	registryCmd.AddCommand(registryValidateCmd, registryListCmd, registryUpdateCmd)
	rootCmd.AddCommand(registryCmd)
}
