package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribemail/scribe/internal/template"
)

var (
	templateCategory    string
	templateSubject     string
	templateBody        string
	templateSearchQuery string
	templateValues      []string
	templateReplace     bool
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Template management commands",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <template_id>",
	Short: "Show template details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateCreate,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <template_id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateDelete,
}

var templateRenderCmd = &cobra.Command{
	Use:   "render <template_id>",
	Short: "Render a template with the active profile and -v overrides",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateRender,
}

var templateStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show template statistics and storage usage",
	RunE:  runTemplateStats,
}

var templateExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export templates as JSON to stdout",
	RunE:  runTemplateExport,
}

var templateImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import templates from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateImport,
}

var templatePrebuiltCmd = &cobra.Command{
	Use:   "prebuilt [category]",
	Short: "Import prebuilt library templates (default: all)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTemplatePrebuilt,
}

func init() {
	templateListCmd.Flags().StringVar(&templateCategory, "category", "", "Filter by category")
	templateListCmd.Flags().StringVar(&templateSearchQuery, "search", "", "Search name, subject, body and category")

	templateCreateCmd.Flags().StringVar(&templateSubject, "subject", "", "Template subject")
	templateCreateCmd.Flags().StringVar(&templateBody, "body", "", "Template body")
	templateCreateCmd.Flags().StringVar(&templateCategory, "category", "", "Template category")

	templateRenderCmd.Flags().StringArrayVarP(&templateValues, "value", "v", nil, "Variable value as name=value (repeatable)")

	templateImportCmd.Flags().BoolVar(&templateReplace, "replace", false, "Replace the whole collection instead of merging")

	templateCmd.AddCommand(
		templateListCmd, templateShowCmd, templateCreateCmd, templateDeleteCmd,
		templateRenderCmd, templateStatsCmd, templateExportCmd, templateImportCmd,
		templatePrebuiltCmd,
	)
	rootCmd.AddCommand(templateCmd)
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	var templates []*template.Template
	switch {
	case templateSearchQuery != "":
		templates = m.templates.Search(templateSearchQuery)
	case templateCategory != "":
		templates = m.templates.ByCategory(templateCategory)
	default:
		templates = m.templates.All()
	}

	if len(templates) == 0 {
		fmt.Println("No templates")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tVARIABLES\tUSED\tMODIFIED")
	fmt.Fprintln(w, "--\t----\t--------\t---------\t----\t--------")
	for _, t := range templates {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
			truncateID(t.ID),
			truncate(t.Name, 30),
			t.Category,
			len(t.Variables),
			t.UsageCount,
			t.Modified.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d templates\n", len(templates))
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	t := m.templates.Get(args[0])
	if t == nil {
		return fmt.Errorf("template not found: %s", args[0])
	}

	fmt.Printf("Template: %s\n\n", t.ID)
	fmt.Printf("Name:      %s\n", t.Name)
	fmt.Printf("Category:  %s\n", t.Category)
	fmt.Printf("Subject:   %s\n", t.Subject)
	fmt.Printf("Used:      %d times\n", t.UsageCount)
	fmt.Printf("Created:   %s\n", t.Created.Format(time.RFC3339))
	fmt.Printf("Modified:  %s\n", t.Modified.Format(time.RFC3339))
	if len(t.Variables) > 0 {
		fmt.Printf("Variables: %s\n", strings.Join(t.Variables, ", "))
	}
	fmt.Printf("\nBody:\n---\n%s\n---\n", t.Body)
	return nil
}

func runTemplateCreate(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	t, err := m.templates.Create(args[0], templateSubject, templateBody, templateCategory)
	if err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	fmt.Printf("Template created: %s (%s)\n", t.Name, t.ID)
	if len(t.Variables) > 0 {
		fmt.Printf("Variables: %s\n", strings.Join(t.Variables, ", "))
	}
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	ok, err := m.templates.Delete(args[0])
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	if !ok {
		return fmt.Errorf("template not found: %s", args[0])
	}

	fmt.Printf("Template %s deleted\n", args[0])
	return nil
}

func parseValueFlags(pairs []string) (map[string]string, error) {
	values := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid value %q (want name=value)", pair)
		}
		values[name] = value
	}
	return values, nil
}

func runTemplateRender(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	t := m.templates.Get(args[0])
	if t == nil {
		return fmt.Errorf("template not found: %s", args[0])
	}

	overrides, err := parseValueFlags(templateValues)
	if err != nil {
		return err
	}

	values := m.profiles.VariableValues(t.Variables)
	for k, v := range overrides {
		values[k] = v
	}

	ctx := cmd.Context()
	subject := template.Substitute(m.verses.ProcessSpecialVariables(ctx, t.Subject), values)
	body := template.Substitute(m.verses.ProcessSpecialVariables(ctx, t.Body), values)

	fmt.Printf("Subject: %s\n\n%s\n", subject, body)
	return nil
}

func runTemplateStats(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	stats := m.templates.Stats()
	fmt.Println("Template Statistics")
	fmt.Println("===================")
	fmt.Printf("Total:          %d\n", stats.Total)
	fmt.Printf("With variables: %d\n", stats.WithVariables)
	fmt.Printf("Total usage:    %d\n", stats.TotalUsage)
	for category, count := range stats.ByCategory {
		fmt.Printf("  %-12s %d\n", category+":", count)
	}

	usage, err := m.templates.StorageUsage()
	if err != nil {
		return err
	}
	fmt.Printf("\nStorage: %d / %d bytes (%d%%)\n", usage.Used, usage.Max, usage.PercentUsed)
	if usage.AtLimit {
		fmt.Println("WARNING: storage is at its limit, delete templates to free space")
	} else if usage.NearLimit {
		fmt.Println("WARNING: storage is near its limit")
	}
	return nil
}

func runTemplateExport(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	data, err := m.templates.Export()
	if err != nil {
		return err
	}
	fmt.Println(data)
	return nil
}

func runTemplateImport(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	strategy := template.MergeSkipDuplicateByName
	if templateReplace {
		strategy = template.ReplaceAll
	}

	count, err := m.templates.Import(data, strategy)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d templates\n", count)
	return nil
}

func runTemplatePrebuilt(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	category := "all"
	if len(args) == 1 {
		category = args[0]
	}

	count, err := m.templates.ImportPrebuilt(category)
	if err != nil {
		return fmt.Errorf("prebuilt import failed: %w (available: %s)",
			err, strings.Join(template.PrebuiltCategories(), ", "))
	}

	fmt.Printf("Imported %d prebuilt templates\n", count)
	return nil
}
