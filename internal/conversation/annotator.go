// File: internal/conversation/annotator.go
package conversation

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Pedro-J-Kukul/chatrelay/internal/data"
	"github.com/Pedro-J-Kukul/chatrelay/internal/personality"
	"github.com/Pedro-J-Kukul/chatrelay/internal/timeline"
	"github.com/Pedro-J-Kukul/chatrelay/internal/tone"
)

// DefaultTimelineCount is the number of posts fetched when no count is configured.
const DefaultTimelineCount = 20

// ToneAnalyzer scores a single utterance.
type ToneAnalyzer interface {
	Tone(ctx context.Context, text string) (*tone.Analysis, error)
}

// PersonalityScorer scores a set of content items.
type PersonalityScorer interface {
	Profile(ctx context.Context, items []personality.ContentItem) (*personality.Profile, error)
}

// TimelineFetcher reads a user's recent posts.
type TimelineFetcher interface {
	UserTimeline(ctx context.Context, handle string, count int) ([]timeline.Post, error)
}

// PersonalityCache keeps scored traits across conversations.
type PersonalityCache interface {
	Get(ctx context.Context, handle string) (map[string]float64, bool, error)
	Set(ctx context.Context, handle string, traits map[string]float64) error
}

// Annotator writes tone and personality annotations into the user state.
// Personality, Timeline and Cache are optional; without the first two the
// personality snapshot is never filled.
type Annotator struct {
	Tone          ToneAnalyzer
	Personality   PersonalityScorer
	Timeline      TimelineFetcher
	Cache         PersonalityCache
	TimelineCount int
	Logger        *slog.Logger
}

// Annotate scores text and, when the user has a handle but no personality yet,
// the user's timeline. Both lookups run concurrently. The user state is only
// modified when every lookup succeeded.
func (a *Annotator) Annotate(ctx context.Context, c *data.Context, text string) error {
	if c.User == nil {
		c.User = data.NewUserState()
	}
	user := c.User
	user.Normalize()

	var (
		analysis *tone.Analysis
		traits   map[string]float64
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		analysis, err = a.Tone.Tone(gctx, text)
		return err
	})

	if a.needsPersonality(user) {
		handle := user.TwitterHandle
		g.Go(func() error {
			var err error
			traits, err = a.personality(gctx, handle)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	user.UpdateTone(
		analysis.Category(data.CategoryEmotion),
		analysis.Category(data.CategoryLanguage),
		analysis.Category(data.CategorySocial),
	)
	if traits != nil {
		user.SetPersonality(traits)
	}
	return nil
}

func (a *Annotator) needsPersonality(user *data.UserState) bool {
	return user.TwitterHandle != "" &&
		user.Personality.IsEmpty() &&
		a.Personality != nil &&
		a.Timeline != nil
}

// personality returns the traits of handle, from the cache when possible.
// A timeline without eligible posts yields nil traits and no error.
func (a *Annotator) personality(ctx context.Context, handle string) (map[string]float64, error) {
	if a.Cache != nil {
		traits, ok, err := a.Cache.Get(ctx, handle)
		switch {
		case err != nil:
			a.logger().Warn("personality cache read failed", "handle", handle, "error", err)
		case ok:
			return traits, nil
		}
	}

	count := a.TimelineCount
	if count <= 0 {
		count = DefaultTimelineCount
	}

	posts, err := a.Timeline.UserTimeline(ctx, handle, count)
	if err != nil {
		return nil, err
	}

	items := timeline.ContentItems(posts)
	if len(items) == 0 {
		a.logger().Info("no eligible posts to score", "handle", handle, "posts", len(posts))
		return nil, nil
	}

	profile, err := a.Personality.Profile(ctx, items)
	if err != nil {
		return nil, err
	}
	traits := profile.Traits()

	if a.Cache != nil {
		if err := a.Cache.Set(ctx, handle, traits); err != nil {
			a.logger().Warn("personality cache write failed", "handle", handle, "error", err)
		}
	}
	return traits, nil
}

func (a *Annotator) logger() *slog.Logger {
	if a.Logger == nil {
		return slog.Default()
	}
	return a.Logger
}
