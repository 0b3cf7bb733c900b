// Package comfort picks the bot's reply in the comfort chat. It is a literal
// ordered keyword table with a random generic fallback; nothing is learned or
// remembered between calls.
package comfort

import (
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
)

// Rule maps a group of keywords to one canned response.
type Rule struct {
	Name     string
	Keywords []string
	Response string
}

// rules are checked in order; the first rule with a keyword contained in the
// lower-cased message wins.
var rules = []Rule{
	{
		Name:     "loneliness",
		Keywords: []string{"lonely", "alone"},
		Response: "I'm here for you. You are not alone. Loneliness is a feeling that many people experience, and it's okay to feel this way. Would you like to talk about what's making you feel lonely, or would you prefer to write about it in your notes?",
	},
	{
		Name:     "sadness",
		Keywords: []string{"sad", "depressed", "down"},
		Response: "I hear that you're feeling sad, and I want you to know that it's completely okay to feel this way. Sadness is a natural part of the human experience. Sometimes writing about our feelings can help us process them. Have you considered putting these thoughts into words in your notes?",
	},
	{
		Name:     "anxiety",
		Keywords: []string{"anxious", "worried", "stressed", "overwhelmed"},
		Response: "Feeling overwhelmed or anxious can be really challenging. Remember to breathe - you don't have to carry all of this at once. Sometimes breaking things down into smaller, manageable pieces can help. Would writing about what's weighing on your mind be helpful right now?",
	},
	{
		Name:     "exhaustion",
		Keywords: []string{"tired", "exhausted", "burnt out"},
		Response: "It sounds like you're carrying a lot right now. Being tired - physically, emotionally, or mentally - is your body and mind's way of asking for care and rest. You deserve to take breaks and be gentle with yourself.",
	},
	{
		Name:     "anger",
		Keywords: []string{"angry", "frustrated", "mad"},
		Response: "Anger and frustration are valid emotions, and it's important to acknowledge them. Sometimes these feelings are trying to tell us something important about our boundaries or needs. Writing can be a healthy way to express and explore these feelings.",
	},
	{
		Name:     "fear",
		Keywords: []string{"scared", "afraid", "fear"},
		Response: "Fear is one of our most basic emotions, and feeling scared doesn't make you weak - it makes you human. You've been brave enough to face fears before, and you have that same courage within you now.",
	},
	{
		Name:     "help",
		Keywords: []string{"help", "support", "need"},
		Response: "Asking for support is a sign of strength, not weakness. I'm here to listen and provide comfort through our conversation. Remember that your notes and poems can also be a form of self-support - a safe space to express and explore your thoughts.",
	},
}

// generic is the fallback pool used when no rule matches.
var generic = []string{
	"I'm here for you. You are not alone. Your feelings are valid and it's okay to feel this way.",
	"Thank you for sharing that with me. It takes courage to open up about difficult feelings.",
	"I hear you, and I want you to know that what you're going through matters. You matter.",
	"Sometimes life can feel overwhelming, but you've made it through difficult times before, and you have the strength to get through this too.",
	"Your feelings are completely understandable. It's natural to have ups and downs - that's what makes us human.",
	"I'm glad you felt comfortable enough to share this with me. Taking time to express your thoughts and feelings is an act of self-care.",
	"Remember to be gentle with yourself. You're doing the best you can with what you have right now.",
	"Every small step forward is progress, even when it doesn't feel like it. You're stronger than you realize.",
	"It's okay to take things one day at a time, or even one moment at a time. There's no pressure to have everything figured out.",
	"Your story matters, your feelings are important, and you deserve kindness - especially from yourself.",
}

func (r Rule) clone() Rule {
	r.Keywords = slices.Clone(r.Keywords)
	return r
}

// Rules returns a copy of the keyword table in match order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = r.clone()
	}
	return out
}

// GenericResponses returns a copy of the fallback pool.
func GenericResponses() []string {
	return slices.Clone(generic)
}

// Selector is safe for concurrent use.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Selector)

// WithRand makes the fallback draw from rng, for reproducible tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Selector) { s.rng = rng }
}

func New(opts ...Option) *Selector {
	s := &Selector{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match returns the first rule whose keywords appear in message.
func (s *Selector) Match(message string) (Rule, bool) {
	lower := strings.ToLower(message)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.clone(), true
			}
		}
	}
	return Rule{}, false
}

// Respond returns exactly one supportive reply for message.
func (s *Selector) Respond(message string) string {
	if rule, ok := s.Match(message); ok {
		return rule.Response
	}
	return generic[s.intN(len(generic))]
}

func (s *Selector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
