package text

import (
	"strings"
	"testing"
	"time"

	"streamnotify/internal/recorder"
	"streamnotify/internal/stream"
)

func testStream(dur string) stream.Stream {
	return stream.Stream{
		Login:           "SomeStreamer",
		LoginNormalized: "somestreamer",
		Title:           "Speedrun: any%",
		Game:            "Half-Life",
		Duration:        dur,
		Platform:        stream.PlatformTwitch,
	}
}

func TestEscapeMarkdown(t *testing.T) {
	t.Parallel()
	got := EscapeMarkdown("a_b*c[d](e)~f`g>h#i+j-k=l|m{n}o.p!q")
	want := `a\_b\*c\[d\]\(e\)\~f\` + "`" + `g\>h\#i\+j\-k\=l\|m\{n\}o\.p\!q`
	if got != want {
		t.Fatalf("EscapeMarkdown = %q, want %q", got, want)
	}
}

func TestStreamInfoDurationShownWhenLong(t *testing.T) {
	t.Parallel()
	f := NewFormatter(nil, Channel{})

	msg := f.StreamStart(testStream("01:23")).Message
	if !strings.Contains(msg, "for _01:23_") {
		t.Fatalf("long duration missing from message: %q", msg)
	}
}

func TestStreamInfoDurationHiddenWhenFresh(t *testing.T) {
	t.Parallel()
	f := NewFormatter(nil, Channel{})

	for _, dur := range []string{"00:03", "00:09"} {
		msg := f.StreamStart(testStream(dur)).Message
		if strings.Contains(msg, "for _") {
			t.Fatalf("fresh duration %s should be omitted: %q", dur, msg)
		}
	}

	// 00:10 and later show the clause again.
	msg := f.StreamStart(testStream("00:10")).Message
	if !strings.Contains(msg, "for _00:10_") {
		t.Fatalf("duration 00:10 should be shown: %q", msg)
	}
}

func TestStreamEndMessage(t *testing.T) {
	t.Parallel()
	f := NewFormatter(nil, Channel{})

	msg := f.StreamEnd(testStream("02:00")).Message
	if !strings.Contains(msg, "was live") || !strings.Contains(msg, "⚪️") {
		t.Fatalf("end message wrong: %q", msg)
	}
}

func TestTitleUpdatePrefixDistinctFromStart(t *testing.T) {
	t.Parallel()
	f := NewFormatter(nil, Channel{})
	s := testStream("01:00")

	start := f.StreamStart(s).Message
	title := f.StreamTitleUpdate(s).Message
	game := f.StreamGameUpdate(s).Message

	if start == title || title == game {
		t.Fatal("update variants must be distinguishable from a fresh start")
	}
	if !strings.HasPrefix(title, "✏️") {
		t.Fatalf("title update missing lead glyph: %q", title)
	}
	if !strings.HasPrefix(game, "🕹") {
		t.Fatalf("game update missing lead glyph: %q", game)
	}
}

func TestDisplayNameAndPhotoFallbacks(t *testing.T) {
	t.Parallel()
	f := NewFormatter(map[string]Channel{
		"somestreamer": {DisplayName: "The Streamer", PhotoLive: "live.jpg"},
	}, Channel{PhotoLive: "default-live.jpg", PhotoOff: "default-off.jpg"})

	n := f.StreamStart(testStream("01:00"))
	if !strings.Contains(n.Message, "The Streamer") {
		t.Fatalf("display name not applied: %q", n.Message)
	}
	if n.Photo != "live.jpg" {
		t.Fatalf("photo = %q, want live.jpg", n.Photo)
	}

	// Off photo not configured per channel, falls back to defaults.
	end := f.StreamEnd(testStream("01:00"))
	if end.Photo != "default-off.jpg" {
		t.Fatalf("photo = %q, want default-off.jpg", end.Photo)
	}
}

func TestShortStatus(t *testing.T) {
	t.Parallel()
	f := NewFormatter(nil, Channel{})

	if got := f.ShortStatus(nil); got != "⚪ Everybody is offline" {
		t.Fatalf("empty status = %q", got)
	}

	kick := testStream("01:00")
	kick.Platform = stream.PlatformKick
	kick.LoginNormalized = "kicker"
	got := f.ShortStatus([]stream.Stream{testStream("01:00"), kick})
	if !strings.Contains(got, "2 online") {
		t.Fatalf("missing count: %q", got)
	}
	if !strings.Contains(got, "🔴") || !strings.Contains(got, "🟢") {
		t.Fatalf("missing platform emojis: %q", got)
	}
}

func TestDiskStateEmbedsRecordings(t *testing.T) {
	t.Parallel()
	started := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	active := []recorder.Recording{{URL: "https://twitch.tv/a", StartedAt: started}}

	msg := DiskState(DiskWarn, 1.5, active)
	if !strings.Contains(msg, "LOW DISK SPACE") {
		t.Fatalf("severity label missing: %q", msg)
	}
	if !strings.Contains(msg, "twitch") {
		t.Fatalf("recording url missing: %q", msg)
	}

	empty := DiskState(DiskOK, 120, nil)
	if !strings.Contains(empty, "no active recordings") {
		t.Fatalf("placeholder missing: %q", empty)
	}
}
