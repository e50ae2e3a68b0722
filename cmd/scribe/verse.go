package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/scribemail/scribe/internal/verse"
)

var (
	verseTranslation string
	verseText        string
	verseReference   string
)

var verseCmd = &cobra.Command{
	Use:   "verse",
	Short: "Verse and quote commands",
}

var verseTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the verse of the day",
	RunE:  runVerseToday,
}

var verseGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Resolve a verse by key",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerseGet,
}

var verseKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List verse keys in selection order",
	RunE:  runVerseKeys,
}

var verseTranslationCmd = &cobra.Command{
	Use:   "translation [code]",
	Short: "Show or set the translation preference",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runVerseTranslation,
}

var verseCustomCmd = &cobra.Command{
	Use:   "custom",
	Short: "Manage custom verse overrides",
}

var verseCustomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List custom verse overrides",
	RunE:  runVerseCustomList,
}

var verseCustomAddCmd = &cobra.Command{
	Use:   "add <key>",
	Short: "Add or replace a custom verse override",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerseCustomAdd,
}

var verseCustomDeleteCmd = &cobra.Command{
	Use:   "delete <key>",
	Short: "Delete a custom verse override",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerseCustomDelete,
}

var verseCustomImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import custom verse overrides from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerseCustomImport,
}

var verseCacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the remote fetch cache",
	RunE:  runVerseCache,
}

var verseCacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the remote fetch cache",
	RunE:  runVerseCacheClear,
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Quote commands",
}

var quoteTodayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the quote of the day",
	RunE:  runQuoteToday,
}

var quoteRandomCmd = &cobra.Command{
	Use:   "random",
	Short: "Show a random quote",
	RunE:  runQuoteRandom,
}

func init() {
	verseGetCmd.Flags().StringVar(&verseTranslation, "translation", "", "Translation code (default: active preference)")

	verseCustomAddCmd.Flags().StringVar(&verseText, "text", "", "Verse text (required)")
	verseCustomAddCmd.Flags().StringVar(&verseReference, "reference", "", "Verse reference")
	verseCustomAddCmd.Flags().StringVar(&verseTranslation, "translation", "", "Translation code (default: active preference)")
	verseCustomAddCmd.MarkFlagRequired("text")

	verseCustomCmd.AddCommand(verseCustomListCmd, verseCustomAddCmd, verseCustomDeleteCmd, verseCustomImportCmd)
	verseCacheCmd.AddCommand(verseCacheClearCmd)
	verseCmd.AddCommand(verseTodayCmd, verseGetCmd, verseKeysCmd, verseTranslationCmd, verseCustomCmd, verseCacheCmd)
	quoteCmd.AddCommand(quoteTodayCmd, quoteRandomCmd)
	rootCmd.AddCommand(verseCmd, quoteCmd)
}

func runVerseToday(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	v := m.verses.VerseOfTheDay(cmd.Context())
	fmt.Println(verse.FormatVerse(v))
	return nil
}

func runVerseGet(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	translation := verseTranslation
	if translation == "" {
		translation = m.verses.Translation()
	}

	v, err := m.verses.Resolve(cmd.Context(), args[0], translation)
	if err != nil {
		if errors.Is(err, verse.ErrUnknownKey) {
			return fmt.Errorf("unknown verse key: %s (see 'scribe verse keys')", args[0])
		}
		return err
	}

	fmt.Println(verse.FormatVerse(v))
	return nil
}

func runVerseKeys(cmd *cobra.Command, args []string) error {
	for _, key := range verse.Keys() {
		fmt.Println(key)
	}
	return nil
}

func runVerseTranslation(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	if len(args) == 0 {
		fmt.Printf("Translation: %s\n", m.verses.Translation())
		fmt.Printf("Available:   %s\n", strings.Join(verse.Translations(), ", "))
		return nil
	}

	code := args[0]
	known := false
	for _, t := range verse.Translations() {
		if t == code {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown translation %s (available: %s)",
			code, strings.Join(verse.Translations(), ", "))
	}

	if err := m.verses.SetTranslation(code); err != nil {
		return fmt.Errorf("failed to set translation: %w", err)
	}

	fmt.Printf("Translation set to %s\n", code)
	return nil
}

func runVerseCustomList(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	custom := m.verses.CustomVerses()
	if len(custom) == 0 {
		fmt.Println("No custom verses")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tREFERENCE\tVERSION\tTEXT")
	fmt.Fprintln(w, "---\t---------\t-------\t----")
	for key, v := range custom {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", key, v.Reference, v.Version, truncate(v.Text, 50))
	}
	w.Flush()
	return nil
}

func runVerseCustomAdd(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	translation := verseTranslation
	if translation == "" {
		translation = m.verses.Translation()
	}

	v := verse.Verse{
		Text:      verseText,
		Reference: verseReference,
		Version:   translation,
	}
	if err := m.verses.AddCustom(args[0], v); err != nil {
		return fmt.Errorf("failed to add custom verse: %w", err)
	}

	fmt.Printf("Custom verse %s saved\n", args[0])
	return nil
}

func runVerseCustomDelete(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.verses.DeleteCustom(args[0]); err != nil {
		return fmt.Errorf("failed to delete custom verse: %w", err)
	}

	fmt.Printf("Custom verse %s deleted\n", args[0])
	return nil
}

func runVerseCustomImport(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	count, err := m.verses.ImportCustom(data)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d custom verses\n", count)
	return nil
}

func runVerseCache(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	entries := m.verses.CacheStats()
	if len(entries) == 0 {
		fmt.Println("Cache is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tREFERENCE\tVERSION\tFETCHED")
	fmt.Fprintln(w, "---\t---------\t-------\t-------")
	for _, e := range entries {
		fetched := ""
		if e.FetchedAt > 0 {
			fetched = time.UnixMilli(e.FetchedAt).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Key, e.Reference, e.Version, fetched)
	}
	w.Flush()
	fmt.Printf("\nTotal: %d cached verses\n", len(entries))
	return nil
}

func runVerseCacheClear(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.verses.ClearCache(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Println("Verse cache cleared")
	return nil
}

func runQuoteToday(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Println(verse.FormatQuote(m.verses.QuoteOfTheDay()))
	return nil
}

func runQuoteRandom(cmd *cobra.Command, args []string) error {
	m, err := openManagers()
	if err != nil {
		return err
	}
	defer m.Close()

	fmt.Println(verse.FormatQuote(m.verses.RandomQuote()))
	return nil
}
