// File: internal/timeline/timeline.go
package timeline

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/Pedro-J-Kukul/chatrelay/internal/personality"
	"github.com/Pedro-J-Kukul/chatrelay/internal/upstream"
)

// MaxCount is the largest page the timeline endpoint serves.
const MaxCount = 200

// Post is a single timeline entry.
type Post struct {
	IDStr               string `json:"id_str"`
	Text                string `json:"text"`
	Lang                string `json:"lang"`
	Retweeted           bool   `json:"retweeted"`
	CreatedAt           string `json:"created_at"`
	InReplyToScreenName string `json:"in_reply_to_screen_name"`
	RetweetedStatus     *Post  `json:"retweeted_status,omitempty"`
	User                struct {
		IDStr      string `json:"id_str"`
		ScreenName string `json:"screen_name"`
	} `json:"user"`
}

// Config holds the credentials of the timeline API.
type Config struct {
	BaseURL        string
	TokenURL       string
	ConsumerKey    string
	ConsumerSecret string
	Timeout        time.Duration
}

// Client reads public timelines.
type Client struct {
	api *upstream.Client
}

// New returns a client that authenticates with an app-only bearer token
// obtained through the client credentials grant.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = upstream.DefaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if cfg.TokenURL == "" {
		cfg.TokenURL = baseURL + "/oauth2/token"
	}

	credentials := clientcredentials.Config{
		ClientID:     cfg.ConsumerKey,
		ClientSecret: cfg.ConsumerSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
	httpClient := credentials.Client(tokenCtx)
	httpClient.Timeout = cfg.Timeout

	api := upstream.New("timeline", baseURL, "", "", cfg.Timeout)
	api.HTTP = httpClient
	return &Client{api: api}
}

// NewWithHTTPClient returns a client that sends requests through httpClient as is.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	api := upstream.New("timeline", baseURL, "", "", 0)
	api.HTTP = httpClient
	return &Client{api: api}
}

// UserTimeline returns up to count recent posts of handle.
func (c *Client) UserTimeline(ctx context.Context, handle string, count int) ([]Post, error) {
	if count <= 0 || count > MaxCount {
		count = MaxCount
	}
	query := url.Values{
		"screen_name": {strings.TrimPrefix(handle, "@")},
		"count":       {strconv.Itoa(count)},
	}

	var posts []Post
	if err := c.api.DoJSON(ctx, http.MethodGet, "/1.1/statuses/user_timeline.json", query, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// EnglishAndNoReshare reports whether a post is eligible for scoring.
func EnglishAndNoReshare(p Post) bool {
	return p.Lang == "en" && !p.Retweeted && p.RetweetedStatus == nil
}

// ContentItems converts the eligible posts into personality content items.
func ContentItems(posts []Post) []personality.ContentItem {
	items := make([]personality.ContentItem, 0, len(posts))
	for _, p := range posts {
		if !EnglishAndNoReshare(p) {
			continue
		}
		items = append(items, ToContentItem(p))
	}
	return items
}

// ToContentItem normalises one post.
func ToContentItem(p Post) personality.ContentItem {
	return personality.ContentItem{
		ID:          p.IDStr,
		UserID:      p.User.IDStr,
		SourceID:    "twitter",
		Language:    "en",
		ContentType: "text/plain",
		Content:     printableASCII(p.Text),
		Created:     createdMillis(p.CreatedAt),
		Reply:       p.InReplyToScreenName != "",
		Forward:     p.RetweetedStatus != nil,
	}
}

// printableASCII drops every character outside 0x20-0x7E.
func printableASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= 0x20 && r <= 0x7e {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// createdMillis parses the timeline's created_at format. Unparseable values yield 0.
func createdMillis(createdAt string) int64 {
	t, err := time.Parse(time.RubyDate, createdAt)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
