package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1700000000123)

func TestRecoverInlineCall(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantName string
		wantArgs string
		wantText string
	}{
		{
			name:     "bare marker",
			content:  `<function=search_documents>{"query": "refund policy"}`,
			wantName: "search_documents",
			wantArgs: `{"query":"refund policy"}`,
			wantText: "",
		},
		{
			name:     "marker with prose and closing tag",
			content:  `Let me look that up. <function=search_documents>{"query": "refund"}</function>`,
			wantName: "search_documents",
			wantArgs: `{"query":"refund"}`,
			wantText: "Let me look that up.",
		},
		{
			name:     "nested braces",
			content:  `<function=search_documents>{"query": "a", "filter": {"page": 2}}`,
			wantName: "search_documents",
			wantArgs: `{"filter":{"page":2},"query":"a"}`,
		},
		{
			name:     "empty object",
			content:  `<function=list_available_files>{}`,
			wantName: "list_available_files",
			wantArgs: `{}`,
		},
		{
			name:     "whitespace body",
			content:  `<function=list_available_files>{ }`,
			wantName: "list_available_files",
			wantArgs: `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := recoverInlineCall(tt.content, fixedNow)
			require.True(t, ok)

			assert.Equal(t, "manual-1700000000123", got.Call.ID)
			assert.Equal(t, "function", got.Call.Type)
			assert.Equal(t, tt.wantName, got.Call.Function.Name)
			assert.JSONEq(t, tt.wantArgs, got.Call.Function.Arguments)
			assert.Equal(t, tt.wantText, got.Text)
		})
	}
}

func TestRecoverInlineCall_NoRecovery(t *testing.T) {
	for name, content := range map[string]string{
		"plain answer":        "The refund window is 30 days.",
		"empty":               "",
		"marker without body": "<function=search_documents>",
		"body not json":       "<function=search_documents>{query: refund}",
		"body is not object":  `<function=search_documents>{"a", "b"}`,
		"name with dash":      `<function=search-documents>{"query": "x"}`,
		"unterminated":        `<function=search_documents>{"query": "x"`,
		"split across lines":  "<function=search_documents>{\n\"query\": \"x\"\n}",
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := recoverInlineCall(content, fixedNow)
			assert.False(t, ok)
		})
	}
}
