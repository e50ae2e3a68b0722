// Package template implements the email template collection: CRUD,
// placeholder extraction and substitution, search, import/export and the
// prebuilt library.
package template

import (
	"regexp"
	"strings"
	"time"
)

// Template is a stored email template. Subject and Body may contain
// {{identifier}} placeholders; Variables is always derived from them and
// never editable on its own.
type Template struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Category   string    `json:"category"`
	Variables  []string  `json:"variables"`
	UsageCount int       `json:"usageCount"`
	Created    time.Time `json:"created"`
	Modified   time.Time `json:"modified"`
}

// UpdateFields carries a partial update. Nil fields keep their current
// value.
type UpdateFields struct {
	Name     *string
	Subject  *string
	Body     *string
	Category *string
}

// ImportStrategy selects how an imported collection is applied.
type ImportStrategy int

const (
	// MergeSkipDuplicateByName adds imported records whose name is not
	// already present; name collisions are skipped, never overwritten.
	MergeSkipDuplicateByName ImportStrategy = iota
	// ReplaceAll discards the current collection and replaces it with
	// the imported one.
	ReplaceAll
)

// Stats summarizes the collection.
type Stats struct {
	Total          int            `json:"total"`
	ByCategory     map[string]int `json:"byCategory"`
	WithVariables  int            `json:"withVariables"`
	TotalVariables int            `json:"totalVariables"`
	TotalUsage     int            `json:"totalUsage"`
}

// StorageUsage reports how much of the bulk-storage quota the serialized
// collection consumes.
type StorageUsage struct {
	Used        int  `json:"used"`
	Max         int  `json:"max"`
	PercentUsed int  `json:"percentUsed"`
	NearLimit   bool `json:"isNearLimit"`
	AtLimit     bool `json:"isAtLimit"`
}

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// ExtractVariables scans text for {{identifier}} placeholders and returns
// the unique identifiers in order of first appearance. Unmatched braces
// simply do not match.
func ExtractVariables(text string) []string {
	var names []string
	seen := make(map[string]bool)

	for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}

	return names
}

// Substitute replaces placeholders in text. Placeholders with a value in
// values are replaced with that value (which may be empty); any remaining
// placeholder is replaced with the empty string so no {{token}} text
// ever reaches sent mail.
func Substitute(text string, values map[string]string) string {
	result := text

	for name, value := range values {
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}

	return placeholderPattern.ReplaceAllString(result, "")
}
