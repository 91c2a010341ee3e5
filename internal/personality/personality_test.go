// File: internal/personality/personality_test.go
package personality

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
)

const sampleTree = `{
	"id": "*UNKNOWN*",
	"source": "*UNKNOWN*",
	"word_count": 1250,
	"tree": {
		"id": "r",
		"name": "root",
		"children": [
			{"id": "personality", "name": "Big 5", "children": [
				{"id": "Openness_parent", "name": "Openness", "category": "personality", "percentage": 0.8, "children": [
					{"id": "Openness", "name": "Openness", "category": "personality", "percentage": 0.8, "children": [
						{"id": "Adventurousness", "percentage": 0.7}
					]},
					{"id": "Conscientiousness", "name": "Conscientiousness", "category": "personality", "percentage": 0.64, "children": [
						{"id": "Dutifulness", "percentage": 0.52},
						{"id": "Self-discipline", "percentage": 0.31}
					]},
					{"id": "Neuroticism", "name": "Emotional range", "category": "personality", "percentage": 0.35, "children": [
						{"id": "Immoderation", "percentage": 0.27}
					]}
				]}
			]},
			{"id": "needs", "name": "Needs", "children": [
				{"id": "Conscientiousness", "percentage": 0.01}
			]}
		]
	}
}`

func TestProfileTraitsFromTree(t *testing.T) {
	var profile Profile
	if err := json.Unmarshal([]byte(sampleTree), &profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}

	expected := map[string]float64{
		data.TraitConscientiousness: 0.64,
		data.TraitNeuroticism:       0.35,
		data.TraitImmoderation:      0.27,
		data.TraitDutifulness:       0.52,
		data.TraitSelfDiscipline:    0.31,
	}

	traits := profile.Traits()
	for id, value := range expected {
		got, ok := traits[id]
		if !ok {
			t.Errorf("missing trait %s", id)
			continue
		}
		if got != value {
			t.Errorf("%s: expected %v, got %v", id, value, got)
		}
	}

	if profile.WordCount != 1250 {
		t.Errorf("expected word count 1250, got %d", profile.WordCount)
	}
}

func TestProfileTraitsFromFlatShape(t *testing.T) {
	var profile Profile
	payload := `{"conscientiousness": 0.5, "neuroticism": null, "self_discipline": 0.25}`
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		t.Fatalf("Failed to decode profile: %v", err)
	}

	traits := profile.Traits()
	if traits[data.TraitConscientiousness] != 0.5 {
		t.Errorf("expected conscientiousness 0.5, got %v", traits[data.TraitConscientiousness])
	}
	if traits[data.TraitSelfDiscipline] != 0.25 {
		t.Errorf("expected self-discipline 0.25, got %v", traits[data.TraitSelfDiscipline])
	}
	if _, ok := traits[data.TraitNeuroticism]; ok {
		t.Error("a null trait must stay absent")
	}

	user := data.NewUserState()
	user.SetPersonality(traits)
	if user.Personality.Neuroticism != nil || user.Personality.Dutifulness != nil {
		t.Error("expected missing traits to be null in the user state")
	}
}

func TestClientProfile(t *testing.T) {
	items := []ContentItem{
		{ID: "1", UserID: "42", SourceID: "twitter", Language: "en", ContentType: "text/plain", Content: "hello world", Created: 1000},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body struct {
			ContentItems []ContentItem `json:"contentItems"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if len(body.ContentItems) != 1 || body.ContentItems[0].Content != "hello world" {
			t.Errorf("unexpected content items %+v", body.ContentItems)
		}

		w.Write([]byte(sampleTree))
	}))
	defer srv.Close()

	client := New(srv.URL, "", "", time.Second)

	profile, err := client.Profile(context.Background(), items)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Traits()[data.TraitImmoderation] != 0.27 {
		t.Errorf("expected immoderation 0.27, got %v", profile.Traits()[data.TraitImmoderation])
	}
}
