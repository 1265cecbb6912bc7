package chatstream

import (
	"encoding/json"
	"strings"

	"github.com/Protocol-Lattice/go-chatstream/src/models"
)

// historyPlaceholder is the typing indicator some front-ends leave in
// the transcript; it carries no conversational content.
const historyPlaceholder = "..."

// contextSeparator introduces the assembled file context inside the
// final user message.
const contextSeparator = "\n\n--- Attached Files Context ---\n"

// FilterHistory keeps only well-formed conversation turns: role user or
// assistant, non-empty content, and not the typing placeholder.
// Malformed entries are dropped silently rather than failing the
// request.
func FilterHistory(history []models.Message) []models.Message {
	out := make([]models.Message, 0, len(history))
	for _, m := range history {
		if m.Role != models.RoleUser && m.Role != models.RoleAssistant {
			continue
		}
		if m.Content == "" || m.Content == historyPlaceholder {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ComposeMessages builds the ordered sequence sent to the backend: the
// persona system message first, then the filtered history, then one
// final user message holding the prompt plus any assembled file
// context.
func ComposeMessages(system string, history []models.Message, prompt, fileContext string) []models.Message {
	msgs := make([]models.Message, 0, len(history)+2)
	msgs = append(msgs, models.Message{Role: models.RoleSystem, Content: system})
	msgs = append(msgs, FilterHistory(history)...)

	content := prompt
	if fileContext != "" {
		content += contextSeparator + fileContext
	}
	msgs = append(msgs, models.Message{Role: models.RoleUser, Content: content})
	return msgs
}

// ParseHistory decodes the JSON transcript the front-end sends with
// each request. A blank document is an empty history; a malformed one
// is a ValidationError.
func ParseHistory(raw string) ([]models.Message, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var history []models.Message
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, validationErrorf("invalid history format received")
	}
	return history, nil
}
