package stream

import (
	"fmt"
	"strings"
	"time"
)

// Platform tags the streaming service a snapshot entry came from.
type Platform int

const (
	PlatformTwitch Platform = iota
	PlatformKick
)

func (p Platform) String() string {
	switch p {
	case PlatformTwitch:
		return "twitch"
	case PlatformKick:
		return "kick"
	default:
		return "unknown"
	}
}

// URL returns the public channel URL for a login on this platform.
func (p Platform) URL(login string) string {
	switch p {
	case PlatformKick:
		return "https://kick.com/" + login
	default:
		return "https://twitch.tv/" + login
	}
}

// Stream is one live channel as seen by a single poll.
//
// LoginNormalized is the identity key: lower-cased, with stray escape
// characters stripped. Within a snapshot it is unique. Login keeps the
// original spelling for display.
type Stream struct {
	Login           string
	LoginNormalized string
	Title           string
	Game            string
	Duration        string // elapsed live time, "HH:MM"
	Platform        Platform
}

// Notification is a single outbound message produced by reconciliation.
// Trigger is a diagnostic reason for logs, never shown to users.
type Notification struct {
	Message string
	Photo   string
	Trigger string
}

// NormalizeLogin folds a raw login into the snapshot identity key.
func NormalizeLogin(login string) string {
	return strings.ToLower(strings.ReplaceAll(login, `\`, ""))
}

// DurationLabel renders elapsed live time as "HH:MM".
func DurationLabel(startedAt, now time.Time) string {
	d := now.Sub(startedAt)
	if d < 0 {
		d = 0
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%02d:%02d", h, m)
}
