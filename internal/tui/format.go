package tui

import (
	"fmt"
	"math/rand/v2"
	"time"

	"haven/store"
)

var poemPrompts = []string{
	"Write about a moment when you felt truly at peace...",
	"Describe the colors of your emotions today...",
	"Capture a memory that makes you smile...",
	"Express what hope looks like to you...",
	"Write about the strength you carry within...",
	"Describe a place where you feel safe...",
	"Express gratitude for something small but meaningful...",
	"Write about a dream you're nurturing...",
}

func randomPrompt(n int) int { return rand.IntN(n) }

// withPrompt appends prompt to body as a new paragraph.
func withPrompt(body, prompt string) string {
	if body == "" {
		return prompt
	}
	return body + "\n\n" + prompt
}

// relativeDate renders t the way the list shows it: hours for today, days
// for the last week, a plain date after that.
func relativeDate(t, now time.Time) string {
	hours := int(now.Sub(t).Hours())
	days := hours / 24
	switch {
	case hours < 1:
		return "Just now"
	case hours == 1:
		return "1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case days == 1:
		return "Yesterday"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	}
	return t.Local().Format("Jan 2, 2006")
}

func displayName(u *store.User) string {
	switch {
	case u == nil:
		return "Friend"
	case u.FirstName != "":
		return u.FirstName
	case u.Email != "":
		return u.Email
	}
	return "Friend"
}
