// Package text renders every user-visible message the bot sends.
// All output is Telegram MarkdownV2.
package text

import (
	"fmt"
	"strings"

	"streamnotify/internal/recorder"
	"streamnotify/internal/stream"
)

// EventType selects which channel photo accompanies a notification.
type EventType int

const (
	EventLive EventType = iota
	EventOff
	EventBanned
	EventUnbanned
)

// Channel carries per-channel presentation config, keyed by normalized login.
type Channel struct {
	DisplayName   string
	PhotoLive     string
	PhotoOff      string
	PhotoBanned   string
	PhotoUnbanned string
}

type platformLook struct {
	emoji string
	label string
}

var platformInfo = map[stream.Platform]platformLook{
	stream.PlatformTwitch: {emoji: "🔴", label: "Twitch"},
	stream.PlatformKick:   {emoji: "🟢", label: "Kick"},
}

// Formatter builds messages using per-channel display names and photos.
// It implements stream.Messages.
type Formatter struct {
	channels map[string]Channel
	defaults Channel
}

func NewFormatter(channels map[string]Channel, defaults Channel) *Formatter {
	if channels == nil {
		channels = map[string]Channel{}
	}
	return &Formatter{channels: channels, defaults: defaults}
}

func (f *Formatter) StreamStart(s stream.Stream) stream.Notification {
	return stream.Notification{
		Message: f.streamInfo(s, true, ""),
		Photo:   f.photo(s.LoginNormalized, EventLive),
		Trigger: "new stream " + s.LoginNormalized,
	}
}

func (f *Formatter) StreamTitleUpdate(s stream.Stream) stream.Notification {
	return stream.Notification{
		Message: f.streamInfo(s, true, "✏️"),
		Photo:   f.photo(s.LoginNormalized, EventLive),
		Trigger: "title update " + s.LoginNormalized,
	}
}

func (f *Formatter) StreamGameUpdate(s stream.Stream) stream.Notification {
	return stream.Notification{
		Message: f.streamInfo(s, true, "🕹"),
		Photo:   f.photo(s.LoginNormalized, EventLive),
		Trigger: "game update " + s.LoginNormalized,
	}
}

func (f *Formatter) StreamEnd(s stream.Stream) stream.Notification {
	return stream.Notification{
		Message: f.streamInfo(s, false, ""),
		Photo:   f.photo(s.LoginNormalized, EventOff),
		Trigger: "stream dead " + s.LoginNormalized,
	}
}

func (f *Formatter) UserBanned(loginNormalized string) stream.Notification {
	return stream.Notification{
		Message: "*" + EscapeMarkdown(f.displayName(loginNormalized, loginNormalized)) + "* " + EscapeMarkdown("is banned!"),
		Photo:   f.photo(loginNormalized, EventBanned),
		Trigger: "banned " + loginNormalized,
	}
}

func (f *Formatter) UserUnbanned(loginNormalized string) stream.Notification {
	return stream.Notification{
		Message: "*" + EscapeMarkdown(f.displayName(loginNormalized, loginNormalized)) + "* " + EscapeMarkdown("is unbanned!"),
		Photo:   f.photo(loginNormalized, EventUnbanned),
		Trigger: "unbanned " + loginNormalized,
	}
}

// streamInfo renders the start/update/end notification body. The elapsed
// time clause is dropped for streams live under ten minutes so fresh
// streams do not read "live for 00:03".
func (f *Formatter) streamInfo(s stream.Stream, online bool, pre string) string {
	look := platformInfo[s.Platform]

	verb, emoji := "is", look.emoji
	if !online {
		verb, emoji = "was", "⚪️"
	}

	duration := ""
	if !strings.HasPrefix(s.Duration, "00:0") {
		duration = "for _" + EscapeMarkdown(s.Duration) + "_ "
	}

	name := EscapeMarkdown(f.displayName(s.LoginNormalized, s.Login))
	game := ""
	if s.Game != "" {
		game = " · " + EscapeMarkdown(s.Game)
	}
	link := streamLink(s, "Open stream on "+look.label+" ↗")

	if pre != "" {
		pre += " "
	}
	return fmt.Sprintf("%s%s %s live %s%s\n*%s*%s\n\n%s",
		pre, name, verb, duration, emoji,
		EscapeMarkdown(s.Title), game, link)
}

// ShortStatus renders the pinned status body summarizing who is live.
func (f *Formatter) ShortStatus(streams []stream.Stream) string {
	if len(streams) == 0 {
		return "⚪ Everybody is offline"
	}

	var b strings.Builder
	seen := map[stream.Platform]bool{}
	for _, s := range streams {
		if !seen[s.Platform] {
			seen[s.Platform] = true
			b.WriteString(platformInfo[s.Platform].emoji)
		}
	}
	fmt.Fprintf(&b, " %d online", len(streams))

	for _, s := range streams {
		fmt.Fprintf(&b, "\n· %s *%s*", streamLink(s, ""), EscapeMarkdown(s.Title))
	}
	return b.String()
}

// DiskSeverity classifies a disk-space notification.
type DiskSeverity int

const (
	DiskError DiskSeverity = iota
	DiskWarn
	DiskOK
)

// DiskState renders a disk monitor notification, embedding the current
// recording list.
func DiskState(sev DiskSeverity, freeGB float64, active []recorder.Recording) string {
	var emoji, label string
	switch sev {
	case DiskError:
		emoji, label = "🧯", "ERROR DISK SPACE"
	case DiskWarn:
		emoji, label = "🚨", "LOW DISK SPACE"
	default:
		emoji, label = "💁", "Disk space state"
	}

	return fmt.Sprintf("%s *%s*: %s\n\n%s",
		emoji, EscapeMarkdown(label),
		EscapeMarkdown(fmt.Sprintf("%.1fG", freeGB)),
		RecordingList(active))
}

// RecordingList renders the active capture list or a placeholder.
func RecordingList(active []recorder.Recording) string {
	if len(active) == 0 {
		return EscapeMarkdown("There is no active recordings")
	}
	lines := make([]string, 0, len(active))
	for i, rec := range active {
		lines = append(lines, EscapeMarkdown(fmt.Sprintf("%d. %s • started: %s",
			i+1, rec.URL, rec.StartedAt.Format("2006-01-02 15:04:05"))))
	}
	return strings.Join(lines, "\n")
}

func BeforeCrash() string {
	return EscapeMarkdown("Bot totally crashed!!!")
}

func PinLoading() string {
	return EscapeMarkdown("Loading messageID...")
}

func PinReady(messageID int) string {
	return EscapeMarkdown(fmt.Sprintf("Now this message will be updated every minute (%d)", messageID))
}

func PinForced() string {
	return EscapeMarkdown("Pin updated by force")
}

func (f *Formatter) displayName(loginNormalized, fallback string) string {
	if ch, ok := f.channels[loginNormalized]; ok && ch.DisplayName != "" {
		return ch.DisplayName
	}
	if fallback != "" {
		return fallback
	}
	return loginNormalized
}

func (f *Formatter) photo(loginNormalized string, ev EventType) string {
	ch, ok := f.channels[loginNormalized]
	pick := func(c Channel) string {
		switch ev {
		case EventLive:
			return c.PhotoLive
		case EventOff:
			return c.PhotoOff
		case EventBanned:
			return c.PhotoBanned
		case EventUnbanned:
			return c.PhotoUnbanned
		}
		return ""
	}
	if ok {
		if p := pick(ch); p != "" {
			return p
		}
	}
	return pick(f.defaults)
}

func streamLink(s stream.Stream, label string) string {
	if label == "" {
		label = s.LoginNormalized
	}
	return "[" + label + "](" + s.Platform.URL(s.LoginNormalized) + ")"
}
