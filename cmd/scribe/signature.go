package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/scribemail/scribe/internal/signature"
)

var (
	signatureDescription string
	signatureCategory    string
	signatureHTMLFile    string
)

var signatureCmd = &cobra.Command{
	Use:   "signature",
	Short: "Signature management commands",
}

var signatureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List signatures",
	RunE:  runSignatureList,
}

var signatureAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a signature from an HTML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignatureAdd,
}

var signatureDeleteCmd = &cobra.Command{
	Use:   "delete <signature_id>",
	Short: "Delete a signature",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignatureDelete,
}

var signatureActivateCmd = &cobra.Command{
	Use:   "activate <signature_id>",
	Short: "Set the active signature",
	Args:  cobra.ExactArgs(1),
	RunE:  runSignatureActivate,
}

var signatureRenderCmd = &cobra.Command{
	Use:   "render [signature_id]",
	Short: "Render a signature (default: the active one)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSignatureRender,
}

var signatureProfileCmd = &cobra.Command{
	Use:   "set-profile <name=value>...",
	Short: "Set user profile fields used by signatures",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSignatureSetProfile,
}

func init() {
	signatureAddCmd.Flags().StringVar(&signatureDescription, "description", "", "Signature description")
	signatureAddCmd.Flags().StringVar(&signatureCategory, "category", "", "Signature category")
	signatureAddCmd.Flags().StringVar(&signatureHTMLFile, "html", "", "Path to the HTML body file (required)")
	signatureAddCmd.MarkFlagRequired("html")

	signatureCmd.AddCommand(
		signatureListCmd, signatureAddCmd, signatureDeleteCmd,
		signatureActivateCmd, signatureRenderCmd, signatureProfileCmd,
	)
	rootCmd.AddCommand(signatureCmd)
}

func runSignatureList(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	signatures := m.signatures.All()
	active := m.signatures.Active()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tVARIABLES\tACTIVE")
	fmt.Fprintln(w, "--\t----\t--------\t---------\t------")
	for _, sig := range signatures {
		activeMark := ""
		if active != nil && active.ID == sig.ID {
			activeMark = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			truncateID(sig.ID), truncate(sig.Name, 30), sig.Category, len(sig.Variables), activeMark)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d signatures\n", len(signatures))
	return nil
}

func runSignatureAdd(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	html, err := os.ReadFile(signatureHTMLFile)
	if err != nil {
		return fmt.Errorf("failed to read HTML file: %w", err)
	}

	sig, err := m.signatures.Add(args[0], signatureDescription, signatureCategory, string(html))
	if err != nil {
		return fmt.Errorf("failed to add signature: %w", err)
	}

	fmt.Printf("Signature added: %s (%s)\n", sig.Name, sig.ID)
	return nil
}

func runSignatureDelete(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	ok, err := m.signatures.Delete(args[0])
	if err != nil {
		return fmt.Errorf("failed to delete signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("signature not found: %s", args[0])
	}

	fmt.Printf("Signature %s deleted\n", args[0])
	return nil
}

func runSignatureActivate(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	ok, err := m.signatures.SetActive(args[0])
	if err != nil {
		return fmt.Errorf("failed to activate signature: %w", err)
	}
	if !ok {
		return fmt.Errorf("signature not found: %s", args[0])
	}

	fmt.Printf("Signature %s is now active\n", args[0])
	return nil
}

func runSignatureRender(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	id := ""
	if len(args) == 1 {
		id = args[0]
	}

	html, err := m.signatures.Processed(cmd.Context(), id)
	if err != nil {
		if err == signature.ErrNotFound {
			return fmt.Errorf("signature not found: %s", id)
		}
		return err
	}

	fmt.Println(html)
	return nil
}

func runSignatureSetProfile(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	updates, err := parseValueFlags(args)
	if err != nil {
		return err
	}

	if err := m.signatures.UpdateUserProfile(updates); err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}

	fmt.Printf("Updated %d user profile fields\n", len(updates))
	return nil
}
