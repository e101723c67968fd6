package chat

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/futig/rag-assistant/internal/entity"
)

var (
	inlineCallPattern = regexp.MustCompile(`<function=(\w+)>\{(.*)\}`)
	closingTagPattern = regexp.MustCompile(`</function>`)
)

// recoveredCall is a tool call some models write into the message text, e.g.
// <function=search_documents>{"query": "refund policy"}.
type recoveredCall struct {
	Call entity.LLMToolCall
	// Text is the message content with the marker removed.
	Text string
}

// recoverInlineCall parses the first inline call marker in content. It
// reports false when there is no marker or its body is not a JSON object.
func recoverInlineCall(content string, now time.Time) (recoveredCall, bool) {
	if !strings.Contains(content, "<function=") {
		return recoveredCall{}, false
	}

	loc := inlineCallPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return recoveredCall{}, false
	}

	name := content[loc[2]:loc[3]]
	body := "{" + content[loc[4]:loc[5]] + "}"

	var args map[string]any
	if err := json.Unmarshal([]byte(body), &args); err != nil {
		return recoveredCall{}, false
	}

	// re-encode so the arguments are canonical JSON
	normalized, err := json.Marshal(args)
	if err != nil {
		return recoveredCall{}, false
	}

	text := content[:loc[0]] + content[loc[1]:]
	text = strings.TrimSpace(closingTagPattern.ReplaceAllString(text, ""))

	return recoveredCall{
		Call: entity.LLMToolCall{
			ID:   fmt.Sprintf("manual-%d", now.UnixMilli()),
			Type: "function",
			Function: entity.LLMFunctionCall{
				Name:      name,
				Arguments: string(normalized),
			},
		},
		Text: text,
	}, true
}
