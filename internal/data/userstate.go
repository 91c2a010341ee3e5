// File: internal/data/userstate.go
package data

import (
	"encoding/json"
	"math"
)

// ----------------------------------------------------------------------
//
//	Definitions
//
// ----------------------------------------------------------------------

// EmotionThreshold is the score an emotion tone must exceed to be reported
// as the dominant emotion. At or below it the turn is "neutral".
const EmotionThreshold = 0.5

// EmotionNeutral is recorded when no emotion tone clears EmotionThreshold.
const EmotionNeutral = "neutral"

// Tone category identifiers used by the tone service.
const (
	CategoryEmotion  = "emotion_tone"
	CategoryLanguage = "language_tone"
	CategorySocial   = "social_tone"
)

// Trait identifiers used by the personality service tree.
const (
	TraitConscientiousness = "Conscientiousness"
	TraitNeuroticism       = "Neuroticism"
	TraitImmoderation      = "Immoderation"
	TraitDutifulness       = "Dutifulness"
	TraitSelfDiscipline    = "Self-discipline"
)

// UserState is the per-conversation record carried in context.user.
// The client round-trips it on every turn; the server never stores it.
// Keys set by the client or the dialog workspace are kept in Extra.
type UserState struct {
	TwitterHandle string                     `json:"twitter_handle,omitempty"`
	Tone          ToneState                  `json:"tone"`
	Personality   *Personality               `json:"personality"`
	Extra         map[string]json.RawMessage `json:"-"`
}

// userStateKeys are the keys decoded into UserState's typed fields.
var userStateKeys = []string{"twitter_handle", "tone", "personality"}

// ToneState holds the three tone categories.
type ToneState struct {
	Emotion  EmotionTone  `json:"emotion"`
	Language LanguageTone `json:"language"`
	Social   SocialTone   `json:"social"`
}

// EmotionTone tracks the dominant emotion of the latest turn and of every turn before it.
type EmotionTone struct {
	Current *string  `json:"current"`
	History []string `json:"history"`
}

// LanguageTone holds the language category scores of the latest turn.
type LanguageTone struct {
	Analytical *float64 `json:"analytical"`
	Confident  *float64 `json:"confident"`
	Tentative  *float64 `json:"tentative"`
}

// SocialTone holds the big five social scores of the latest turn.
type SocialTone struct {
	OpennessBig5          *float64 `json:"openness_big5"`
	ConscientiousnessBig5 *float64 `json:"conscientiousness_big5"`
	ExtraversionBig5      *float64 `json:"extraversion_big5"`
	AgreeablenessBig5     *float64 `json:"agreeableness_big5"`
	EmotionalRangeBig5    *float64 `json:"emotional_range_big5"`
}

// Personality is the trait snapshot derived from the user's timeline.
type Personality struct {
	Conscientiousness *float64 `json:"conscientiousness"`
	Immoderation      *float64 `json:"immoderation"`
	Dutifulness       *float64 `json:"dutifulness"`
	Neuroticism       *float64 `json:"neuroticism"`
	SelfDiscipline    *float64 `json:"self_discipline"`
}

// ToneScore is a single named score inside a tone category.
type ToneScore struct {
	ID    string
	Score float64
}

// ----------------------------------------------------------------------
//
//	Methods
//
// ----------------------------------------------------------------------

// NewUserState returns a user state with every field null and an empty history.
func NewUserState() *UserState {
	return &UserState{
		Tone: ToneState{
			Emotion: EmotionTone{History: []string{}},
		},
		Personality: &Personality{},
	}
}

// Normalize fills the parts of a client supplied state that JSON decoding may
// have left unset, so a decoded state always matches NewUserState's shape.
func (u *UserState) Normalize() {
	if u.Tone.Emotion.History == nil {
		u.Tone.Emotion.History = []string{}
	}
	if u.Personality == nil {
		u.Personality = &Personality{}
	}
}

// MarshalJSON writes the typed fields over the preserved extra keys.
func (u UserState) MarshalJSON() ([]byte, error) {
	type alias UserState
	known, err := json.Marshal(alias(u))
	if err != nil || len(u.Extra) == 0 {
		return known, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	out := make(map[string]json.RawMessage, len(u.Extra)+len(fields))
	for k, v := range u.Extra {
		out[k] = v
	}
	for k, v := range fields {
		out[k] = v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the typed fields and keeps every other key verbatim.
func (u *UserState) UnmarshalJSON(b []byte) error {
	type alias UserState
	var aux alias
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range userStateKeys {
		delete(raw, k)
	}

	*u = UserState(aux)
	if len(raw) > 0 {
		u.Extra = raw
	}
	return nil
}

// CurrentEmotion returns the dominant emotion of the latest turn, or "" when none was recorded.
func (u *UserState) CurrentEmotion() string {
	if u == nil || u.Tone.Emotion.Current == nil {
		return ""
	}
	return *u.Tone.Emotion.Current
}

// IsEmpty reports whether no trait has been recorded yet.
func (p *Personality) IsEmpty() bool {
	return p == nil ||
		p.Conscientiousness == nil &&
			p.Immoderation == nil &&
			p.Dutifulness == nil &&
			p.Neuroticism == nil &&
			p.SelfDiscipline == nil
}

// DominantEmotion returns the id of the highest scoring tone, or EmotionNeutral
// when that score does not exceed EmotionThreshold. Ties go to the earliest tone.
func DominantEmotion(tones []ToneScore) string {
	best := ToneScore{ID: EmotionNeutral, Score: 0}
	for _, t := range tones {
		if t.Score > best.Score {
			best = t
		}
	}
	if best.Score <= EmotionThreshold {
		return EmotionNeutral
	}
	return best.ID
}

// UpdateTone records one turn of tone analysis: the dominant emotion is appended
// to the history and becomes current, language and social scores are replaced.
func (u *UserState) UpdateTone(emotion, language, social []ToneScore) {
	u.Normalize()

	dominant := DominantEmotion(emotion)
	u.Tone.Emotion.Current = &dominant
	u.Tone.Emotion.History = append(u.Tone.Emotion.History, dominant)

	lang := scoreIndex(language)
	u.Tone.Language = LanguageTone{
		Analytical: lang.get("analytical"),
		Confident:  lang.get("confident"),
		Tentative:  lang.get("tentative"),
	}

	soc := scoreIndex(social)
	u.Tone.Social = SocialTone{
		OpennessBig5:          soc.get("openness_big5"),
		ConscientiousnessBig5: soc.get("conscientiousness_big5"),
		ExtraversionBig5:      soc.get("extraversion_big5"),
		AgreeablenessBig5:     soc.get("agreeableness_big5"),
		EmotionalRangeBig5:    soc.get("emotional_range_big5"),
	}
}

// SetPersonality writes the five tracked traits from a trait lookup keyed by
// the personality service's node ids. Missing traits stay null.
func (u *UserState) SetPersonality(traits map[string]float64) {
	idx := index(traits)
	u.Personality = &Personality{
		Conscientiousness: idx.get(TraitConscientiousness),
		Immoderation:      idx.get(TraitImmoderation),
		Dutifulness:       idx.get(TraitDutifulness),
		Neuroticism:       idx.get(TraitNeuroticism),
		SelfDiscipline:    idx.get(TraitSelfDiscipline),
	}
}

type index map[string]float64

func scoreIndex(scores []ToneScore) index {
	idx := make(index, len(scores))
	for _, s := range scores {
		idx[s.ID] = s.Score
	}
	return idx
}

// get returns nil for absent keys and for values outside [0,1].
func (idx index) get(key string) *float64 {
	v, ok := idx[key]
	if !ok || math.IsNaN(v) || v < 0 || v > 1 {
		return nil
	}
	return &v
}
