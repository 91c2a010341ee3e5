// File: internal/conversation/personalizer.go
package conversation

import "github.com/Pedro-J-Kukul/chatrelay/internal/data"

// NoResponseMessage replaces the output when the dialog service returned nothing.
const NoResponseMessage = "Sorry, the conversation service did not return a response."

var emotionPrefixes = map[string]string{
	"anger":   "I'm sorry you're frustrated.",
	"joy":     "Great!",
	"sadness": "Cheer up!",
	"disgust": "That sounds unpleasant.",
	"fear":    "Don't worry, we'll figure it out.",
}

// Prefix returns the phrase for an emotion, or "" when there is none.
func Prefix(emotion string) string {
	return emotionPrefixes[emotion]
}

// Personalize prepends the phrase matching the user's current emotion to the
// first line of the reply. A reply without a phrase is left unchanged.
func Personalize(resp *data.MessageResponse) *data.MessageResponse {
	if resp == nil {
		resp = &data.MessageResponse{}
	}
	if resp.Output == nil {
		resp.Output = &data.Output{Text: data.NewText(NoResponseMessage)}
		return resp
	}

	var emotion string
	if resp.Context != nil {
		emotion = resp.Context.User.CurrentEmotion()
	}

	prefix := Prefix(emotion)
	if prefix == "" {
		return resp
	}

	lines := append([]string(nil), resp.Output.Text.Lines...)
	if len(lines) == 0 {
		lines = []string{prefix}
	} else {
		lines[0] = prefix + " " + lines[0]
	}
	resp.Output.Text.Lines = lines
	return resp
}
