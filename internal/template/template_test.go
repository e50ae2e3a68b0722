package template

import (
	"reflect"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "none",
			text: "plain text without placeholders",
			want: nil,
		},
		{
			name: "single",
			text: "Hello {{firstName}}!",
			want: []string{"firstName"},
		},
		{
			name: "order of first appearance",
			text: "{{greeting}} {{firstName}}, from {{company}}",
			want: []string{"greeting", "firstName", "company"},
		},
		{
			name: "duplicates collapse",
			text: "{{name}} and again {{name}} and {{other}}",
			want: []string{"name", "other"},
		},
		{
			name: "unmatched braces ignored",
			text: "{{open and }}close{ {mid} }",
			want: nil,
		},
		{
			name: "non-word characters do not match",
			text: "{{verse:john316}} {{first-name}} {{ok_1}}",
			want: []string{"ok_1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractVariables(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractVariables(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		values map[string]string
		want   string
	}{
		{
			name:   "provided values replace",
			text:   "Hello {{name}}, welcome to {{place}}",
			values: map[string]string{"name": "Ada", "place": "the team"},
			want:   "Hello Ada, welcome to the team",
		},
		{
			name:   "unresolved placeholders render blank",
			text:   "Hello {{name}}, welcome to {{place}}",
			values: map[string]string{"name": "Ada"},
			want:   "Hello Ada, welcome to ",
		},
		{
			name:   "empty string value is a value",
			text:   "Hi{{suffix}} there",
			values: map[string]string{"suffix": ""},
			want:   "Hi there",
		},
		{
			name:   "nil values blanks everything",
			text:   "{{a}}{{b}}",
			values: nil,
			want:   "",
		},
		{
			name:   "extra values ignored",
			text:   "static text",
			values: map[string]string{"unused": "x"},
			want:   "static text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Substitute(tt.text, tt.values)
			if got != tt.want {
				t.Errorf("Substitute() = %q, want %q", got, tt.want)
			}
		})
	}
}
