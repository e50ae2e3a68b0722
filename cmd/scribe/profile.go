package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribemail/scribe/internal/profile"
)

var (
	profileVariables []string
	profileDefault   bool
	profileReplace   bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile management commands",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <profile_id>",
	Short: "Show profile details",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile_id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

var profileActivateCmd = &cobra.Command{
	Use:   "activate <profile_id>",
	Short: "Set the active profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileActivate,
}

var profileSetCmd = &cobra.Command{
	Use:   "set <profile_id> <name=value>...",
	Short: "Set variables on a profile",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runProfileSet,
}

var profileExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export profiles as JSON to stdout",
	RunE:  runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import profiles from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileImport,
}

func init() {
	profileCreateCmd.Flags().StringArrayVarP(&profileVariables, "value", "v", nil, "Variable value as name=value (repeatable)")
	profileCreateCmd.Flags().BoolVar(&profileDefault, "default", false, "Mark this profile as the default")

	profileImportCmd.Flags().BoolVar(&profileReplace, "replace", false, "Replace the whole collection instead of merging")

	profileCmd.AddCommand(
		profileListCmd, profileShowCmd, profileCreateCmd, profileDeleteCmd,
		profileActivateCmd, profileSetCmd, profileExportCmd, profileImportCmd,
	)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	profiles := m.profiles.All()
	if len(profiles) == 0 {
		fmt.Println("No profiles")
		return nil
	}

	active := m.profiles.Active()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tVARIABLES\tDEFAULT\tACTIVE")
	fmt.Fprintln(w, "--\t----\t---------\t-------\t------")
	for _, p := range profiles {
		defaultMark := ""
		if p.IsDefault {
			defaultMark = "yes"
		}
		activeMark := ""
		if active != nil && active.ID == p.ID {
			activeMark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			truncateID(p.ID), truncate(p.Name, 30), len(p.Variables), defaultMark, activeMark)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d profiles\n", len(profiles))
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	p := m.profiles.Get(args[0])
	if p == nil {
		return fmt.Errorf("profile not found: %s", args[0])
	}

	fmt.Printf("Profile: %s\n\n", p.ID)
	fmt.Printf("Name:     %s\n", p.Name)
	fmt.Printf("Default:  %v\n", p.IsDefault)
	fmt.Printf("Created:  %s\n", p.Created.Format(time.RFC3339))
	fmt.Printf("Modified: %s\n", p.Modified.Format(time.RFC3339))
	if len(p.Variables) > 0 {
		fmt.Println("\nVariables:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for name, value := range p.Variables {
			fmt.Fprintf(w, "  %s\t%s\n", name, value)
		}
		w.Flush()
	}
	return nil
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	variables, err := parseValueFlags(profileVariables)
	if err != nil {
		return err
	}

	p, err := m.profiles.Create(args[0], variables, profileDefault)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	fmt.Printf("Profile created: %s (%s)\n", p.Name, p.ID)
	return nil
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	ok, err := m.profiles.Delete(args[0])
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if !ok {
		return fmt.Errorf("profile not found: %s", args[0])
	}

	fmt.Printf("Profile %s deleted\n", args[0])
	return nil
}

func runProfileActivate(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	ok, err := m.profiles.SetActive(args[0])
	if err != nil {
		return fmt.Errorf("failed to activate profile: %w", err)
	}
	if !ok {
		return fmt.Errorf("profile not found: %s", args[0])
	}

	fmt.Printf("Profile %s is now active\n", args[0])
	return nil
}

func runProfileSet(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	variables, err := parseValueFlags(args[1:])
	if err != nil {
		return err
	}

	ok, err := m.profiles.UpdateVariables(args[0], variables)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if !ok {
		return fmt.Errorf("profile not found: %s", args[0])
	}

	fmt.Printf("Updated %d variables on profile %s\n", len(variables), args[0])
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	data, err := m.profiles.Export()
	if err != nil {
		return err
	}
	fmt.Println(data)
	return nil
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	strategy := profile.MergeSkipDuplicateByName
	if profileReplace {
		strategy = profile.ReplaceAll
	}

	count, err := m.profiles.Import(data, strategy)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d profiles\n", count)
	return nil
}
