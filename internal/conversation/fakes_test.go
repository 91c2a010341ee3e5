// File: internal/conversation/fakes_test.go
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/personality"
	"github.com/Pedro-J-Kukul/chatrelay/internal/timeline"
	"github.com/Pedro-J-Kukul/chatrelay/internal/tone"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// toneAnalysis builds an analysis with the given emotion scores, in order,
// plus fixed language and social scores.
func toneAnalysis(t *testing.T, emotions ...data.ToneScore) *tone.Analysis {
	t.Helper()

	tones := make([]string, 0, len(emotions))
	for _, e := range emotions {
		tones = append(tones, fmt.Sprintf(`{"tone_id": %q, "score": %v}`, e.ID, e.Score))
	}
	payload := fmt.Sprintf(`{"document_tone": {"tone_categories": [
		{"category_id": "emotion_tone", "tones": [%s]},
		{"category_id": "language_tone", "tones": [{"tone_id": "analytical", "score": 0.4}]},
		{"category_id": "social_tone", "tones": [{"tone_id": "agreeableness_big5", "score": 0.7}]}
	]}}`, strings.Join(tones, ","))

	var analysis tone.Analysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		t.Fatalf("Failed to build tone analysis: %v", err)
	}
	return &analysis
}

type fakeTone struct {
	calls    atomic.Int32
	analysis *tone.Analysis
	err      error
}

func (f *fakeTone) Tone(ctx context.Context, text string) (*tone.Analysis, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

type fakePersonality struct {
	calls atomic.Int32
	items []personality.ContentItem
	err   error
}

func (f *fakePersonality) Profile(ctx context.Context, items []personality.ContentItem) (*personality.Profile, error) {
	f.calls.Add(1)
	f.items = items
	if f.err != nil {
		return nil, f.err
	}
	var profile personality.Profile
	payload := `{"conscientiousness": 0.6, "immoderation": 0.2, "dutifulness": 0.5, "neuroticism": 0.3, "self_discipline": 0.4}`
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

type fakeTimeline struct {
	calls  atomic.Int32
	handle string
	count  int
	posts  []timeline.Post
	err    error
}

func (f *fakeTimeline) UserTimeline(ctx context.Context, handle string, count int) ([]timeline.Post, error) {
	f.calls.Add(1)
	f.handle, f.count = handle, count
	if f.err != nil {
		return nil, f.err
	}
	return f.posts, nil
}

func englishPosts() []timeline.Post {
	posts := []timeline.Post{
		{IDStr: "1", Text: "Shipping the release today", Lang: "en"},
		{IDStr: "2", Text: "Hola", Lang: "es"},
		{IDStr: "3", Text: "RT shared", Lang: "en", Retweeted: true},
	}
	for i := range posts {
		posts[i].User.IDStr = "42"
	}
	return posts
}

type fakeCache struct {
	mu     sync.Mutex
	traits map[string]map[string]float64
}

func (f *fakeCache) Get(ctx context.Context, handle string) (map[string]float64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	traits, ok := f.traits[handle]
	return traits, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, handle string, traits map[string]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.traits == nil {
		f.traits = make(map[string]map[string]float64)
	}
	f.traits[handle] = traits
	return nil
}

type fakeDialog struct {
	calls   atomic.Int32
	request *data.MessageRequest
	reply   func(req *data.MessageRequest) (*data.MessageResponse, error)
}

func (f *fakeDialog) Message(ctx context.Context, workspaceID string, req *data.MessageRequest) (*data.MessageResponse, error) {
	f.calls.Add(1)
	f.request = req
	if f.reply != nil {
		return f.reply(req)
	}
	// Echo the context back the way the dialog service does.
	return &data.MessageResponse{
		Input:   req.Input,
		Output:  &data.Output{Text: data.NewText("Hello")},
		Context: req.Context,
	}, nil
}

type memoryLogs struct {
	mu      sync.Mutex
	entries []*data.LogEntry
	err     error
}

func (m *memoryLogs) Init() error { return nil }

func (m *memoryLogs) Insert(entry *data.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memoryLogs) GetAll(filter data.LogFilter) ([]*data.LogEntry, data.MetaData, error) {
	return m.entries, data.MetaData{}, nil
}

func (m *memoryLogs) Export() ([]*data.LogEntry, error) { return m.entries, nil }

func (m *memoryLogs) Clear() error {
	m.entries = nil
	return nil
}

func (m *memoryLogs) Close() error { return nil }
