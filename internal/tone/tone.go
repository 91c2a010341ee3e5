// File: internal/tone/tone.go
package tone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/upstream"
)

// Version is the tone service API version the categories below follow.
const Version = "2016-05-19"

// Analysis is the tone service's document level result.
type Analysis struct {
	DocumentTone struct {
		ToneCategories []Category `json:"tone_categories"`
	} `json:"document_tone"`

	byCategory map[string][]data.ToneScore
}

// Category groups the tones of one category.
type Category struct {
	CategoryID   string `json:"category_id"`
	CategoryName string `json:"category_name"`
	Tones        []Tone `json:"tones"`
}

// Tone is a single scored tone.
type Tone struct {
	ToneID   string  `json:"tone_id"`
	ToneName string  `json:"tone_name"`
	Score    float64 `json:"score"`
}

// UnmarshalJSON decodes the analysis and indexes its categories.
func (a *Analysis) UnmarshalJSON(b []byte) error {
	type alias Analysis
	var aux alias
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*a = Analysis(aux)
	a.index()
	return nil
}

func (a *Analysis) index() {
	a.byCategory = make(map[string][]data.ToneScore, len(a.DocumentTone.ToneCategories))
	for _, category := range a.DocumentTone.ToneCategories {
		scores := make([]data.ToneScore, 0, len(category.Tones))
		for _, t := range category.Tones {
			scores = append(scores, data.ToneScore{ID: t.ToneID, Score: t.Score})
		}
		a.byCategory[category.CategoryID] = scores
	}
}

// Category returns the scores of one category in the order the service sent
// them, or nil when the category is missing.
func (a *Analysis) Category(id string) []data.ToneScore {
	if a == nil {
		return nil
	}
	if a.byCategory == nil {
		a.index()
	}
	return a.byCategory[id]
}

// Client calls the tone service.
type Client struct {
	api *upstream.Client
}

// New returns a tone client for the service at baseURL.
func New(baseURL, username, password string, timeout time.Duration) *Client {
	return &Client{api: upstream.New("tone", baseURL, username, password, timeout)}
}

// Tone scores a single utterance.
func (c *Client) Tone(ctx context.Context, text string) (*Analysis, error) {
	query := url.Values{
		"version":   {Version},
		"sentences": {"false"},
	}

	var analysis Analysis
	err := c.api.DoJSON(ctx, http.MethodPost, "/v3/tone", query, map[string]string{"text": text}, &analysis)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}
