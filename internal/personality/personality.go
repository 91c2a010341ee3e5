// File: internal/personality/personality.go
package personality

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/upstream"
)

// Version is the personality service API version.
const Version = "2016-08-31"

// ContentItem is one post submitted for scoring.
type ContentItem struct {
	ID          string `json:"id"`
	UserID      string `json:"userid"`
	SourceID    string `json:"sourceid"`
	Language    string `json:"language"`
	ContentType string `json:"contenttype"`
	Content     string `json:"content"`
	Created     int64  `json:"created"`
	Reply       bool   `json:"reply"`
	Forward     bool   `json:"forward"`
}

// Node is one category, trait or facet in the profile tree.
type Node struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Category      string  `json:"category,omitempty"`
	Percentage    float64 `json:"percentage"`
	SamplingError float64 `json:"sampling_error,omitempty"`
	Children      []Node  `json:"children,omitempty"`
}

// Profile is the personality service's response. The service either returns
// a tree of nodes or, from older adapters, a flat object of the five traits.
type Profile struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	WordCount int    `json:"word_count"`
	Tree      *Node  `json:"tree,omitempty"`

	traits map[string]float64
}

// flatKeys maps the flat response shape onto tree node ids.
var flatKeys = map[string]string{
	"conscientiousness": data.TraitConscientiousness,
	"neuroticism":       data.TraitNeuroticism,
	"immoderation":      data.TraitImmoderation,
	"dutifulness":       data.TraitDutifulness,
	"self_discipline":   data.TraitSelfDiscipline,
}

// UnmarshalJSON decodes either response shape and builds the trait lookup.
func (p *Profile) UnmarshalJSON(b []byte) error {
	type alias Profile
	var aux alias
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*p = Profile(aux)
	p.traits = make(map[string]float64)

	if p.Tree != nil {
		root := p.Tree
		for i := range p.Tree.Children {
			if p.Tree.Children[i].ID == "personality" {
				root = &p.Tree.Children[i]
				break
			}
		}
		collect(root, p.traits)
		return nil
	}

	var flat map[string]json.RawMessage
	if err := json.Unmarshal(b, &flat); err != nil {
		return err
	}
	for key, id := range flatKeys {
		raw, ok := flat[key]
		if !ok {
			continue
		}
		var v *float64
		if err := json.Unmarshal(raw, &v); err == nil && v != nil {
			p.traits[id] = *v
		}
	}
	return nil
}

func collect(node *Node, into map[string]float64) {
	if node.ID != "" {
		if _, seen := into[node.ID]; !seen {
			into[node.ID] = node.Percentage
		}
	}
	for i := range node.Children {
		collect(&node.Children[i], into)
	}
}

// Traits returns percentages keyed by node id, taken from the personality
// branch of the tree when there is one.
func (p *Profile) Traits() map[string]float64 {
	if p == nil {
		return nil
	}
	return p.traits
}

// Client calls the personality service.
type Client struct {
	api *upstream.Client
}

// New returns a personality client for the service at baseURL.
func New(baseURL, username, password string, timeout time.Duration) *Client {
	return &Client{api: upstream.New("personality", baseURL, username, password, timeout)}
}

// Profile scores the given content items.
func (c *Client) Profile(ctx context.Context, items []ContentItem) (*Profile, error) {
	query := url.Values{"version": {Version}}
	body := struct {
		ContentItems []ContentItem `json:"contentItems"`
	}{ContentItems: items}

	var profile Profile
	if err := c.api.DoJSON(ctx, http.MethodPost, "/v2/profile", query, body, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
