// File: internal/data/messages.go
package data

import (
	"bytes"
	"encoding/json"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// Context is the conversation context round-tripped between the client and
// the dialog service. Only user and conversation_id are typed; every other
// key is kept verbatim so dialog state survives the round trip.
type Context struct {
	ConversationID string
	User           *UserState
	Extra          map[string]json.RawMessage
}

// Input is the user's utterance.
type Input struct {
	Text string `json:"text"`
}

// Text is the dialog output text. The dialog service sends a list of lines,
// older clients send a single string; both shapes are preserved on output.
type Text struct {
	Lines  []string
	scalar bool
}

// Output is the dialog service's reply.
type Output struct {
	Text         Text              `json:"text"`
	NodesVisited []string          `json:"nodes_visited,omitempty"`
	LogMessages  []json.RawMessage `json:"log_messages,omitempty"`
}

// Intent is a classified intent with its confidence.
type Intent struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// Entity is a recognised entity value.
type Entity struct {
	Entity     string  `json:"entity"`
	Value      string  `json:"value"`
	Location   []int   `json:"location,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// MessageRequest is the body of POST /api/message and the payload sent on to the dialog service.
type MessageRequest struct {
	Input            *Input   `json:"input,omitempty"`
	Context          *Context `json:"context,omitempty"`
	AlternateIntents bool     `json:"alternate_intents,omitempty"`
}

// MessageResponse is the dialog service's response.
type MessageResponse struct {
	Input    *Input   `json:"input,omitempty"`
	Output   *Output  `json:"output,omitempty"`
	Context  *Context `json:"context,omitempty"`
	Intents  []Intent `json:"intents,omitempty"`
	Entities []Entity `json:"entities,omitempty"`
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// NewContext returns a context holding a freshly initialised user state.
func NewContext() *Context {
	return &Context{User: NewUserState()}
}

// MarshalJSON writes the typed fields over the preserved extra keys.
func (c Context) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.ConversationID != "" {
		out["conversation_id"] = c.ConversationID
	}
	if c.User != nil {
		out["user"] = c.User
	}
	return json.Marshal(out)
}

// UnmarshalJSON splits the typed fields out of the raw context object.
func (c *Context) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	*c = Context{}

	if v, ok := raw["conversation_id"]; ok {
		if err := json.Unmarshal(v, &c.ConversationID); err != nil {
			return err
		}
		delete(raw, "conversation_id")
	}

	if v, ok := raw["user"]; ok {
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			c.User = &UserState{}
			if err := json.Unmarshal(v, c.User); err != nil {
				return err
			}
		}
		delete(raw, "user")
	}

	if len(raw) > 0 {
		c.Extra = raw
	}
	return nil
}

// NewText returns a list shaped text.
func NewText(lines ...string) Text {
	return Text{Lines: lines}
}

// String joins the lines with a single space.
func (t Text) String() string {
	var buf bytes.Buffer
	for i, line := range t.Lines {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
	}
	return buf.String()
}

// MarshalJSON writes a string when the text arrived as one, a list otherwise.
func (t Text) MarshalJSON() ([]byte, error) {
	if t.scalar {
		return json.Marshal(t.String())
	}
	if t.Lines == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.Lines)
}

// UnmarshalJSON accepts a string, a list of strings or null.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = Text{}
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text{Lines: []string{s}, scalar: true}
		return nil
	default:
		var lines []string
		if err := json.Unmarshal(b, &lines); err != nil {
			return err
		}
		*t = Text{Lines: lines}
		return nil
	}
}
