// File: internal/conversation/personalizer_test.go
package conversation

import (
	"encoding/json"
	"testing"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
)

func responseWithEmotion(emotion *string, text ...string) *data.MessageResponse {
	c := data.NewContext()
	c.User.Tone.Emotion.Current = emotion
	return &data.MessageResponse{
		Output:  &data.Output{Text: data.NewText(text...)},
		Context: c,
	}
}

func TestPersonalize(t *testing.T) {
	str := func(s string) *string { return &s }

	tests := []struct {
		name     string
		emotion  *string
		text     []string
		expected string
	}{
		{"Joy", str("joy"), []string{"Hello"}, "Great! Hello"},
		{"Anger", str("anger"), []string{"Hello"}, "I'm sorry you're frustrated. Hello"},
		{"Sadness", str("sadness"), []string{"Hello"}, "Cheer up! Hello"},
		{"Disgust", str("disgust"), []string{"Hello"}, "That sounds unpleasant. Hello"},
		{"Fear", str("fear"), []string{"Hello"}, "Don't worry, we'll figure it out. Hello"},
		{"Neutral leaves text unchanged", str(data.EmotionNeutral), []string{"Hello"}, "Hello"},
		{"Null leaves text unchanged", nil, []string{"Hello"}, "Hello"},
		{"Only first line is prefixed", str("joy"), []string{"Hello", "How can I help?"}, "Great! Hello How can I help?"},
		{"Empty output gets the phrase", str("joy"), nil, "Great!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Personalize(responseWithEmotion(tt.emotion, tt.text...))
			if got := resp.Output.Text.String(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPersonalizeMissingResponse(t *testing.T) {
	resp := Personalize(nil)
	if resp.Output == nil || resp.Output.Text.String() != NoResponseMessage {
		t.Errorf("expected the fixed message for a nil response, got %+v", resp.Output)
	}

	resp = Personalize(&data.MessageResponse{Context: data.NewContext()})
	if resp.Output.Text.String() != NoResponseMessage {
		t.Errorf("expected the fixed message for a missing output, got %q", resp.Output.Text.String())
	}
}

func TestPersonalizeKeepsScalarText(t *testing.T) {
	var resp data.MessageResponse
	payload := `{"output": {"text": "Hello"}, "context": {"user": {"tone": {"emotion": {"current": "joy", "history": ["joy"]}}}}}`
	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	out, err := json.Marshal(Personalize(&resp).Output)
	if err != nil {
		t.Fatalf("Failed to encode output: %v", err)
	}
	if string(out) != `{"text":"Great! Hello"}` {
		t.Errorf("unexpected output %s", out)
	}
}
