package stream

import (
	"reflect"
	"testing"
	"time"
)

// tagMessages renders notifications as compact "kind(login)" tags so tests
// can assert on exact content and ordering.
type tagMessages struct{}

func (tagMessages) StreamStart(s Stream) Notification {
	return Notification{Message: "start(" + s.LoginNormalized + ")", Trigger: "new"}
}
func (tagMessages) StreamTitleUpdate(s Stream) Notification {
	return Notification{Message: "title(" + s.LoginNormalized + ")", Trigger: "title"}
}
func (tagMessages) StreamGameUpdate(s Stream) Notification {
	return Notification{Message: "game(" + s.LoginNormalized + ")", Trigger: "game"}
}
func (tagMessages) StreamEnd(s Stream) Notification {
	return Notification{Message: "end(" + s.LoginNormalized + ")", Trigger: "dead"}
}

type recordList map[string]struct{}

func (r recordList) ShouldRecord(login string) bool {
	_, ok := r[login]
	return ok
}

func live(login, title, game string) Stream {
	return Stream{
		Login:           login,
		LoginNormalized: NormalizeLogin(login),
		Title:           title,
		Game:            game,
		Duration:        "01:23",
		Platform:        PlatformTwitch,
	}
}

func messages(res Result) []string {
	out := make([]string, 0, len(res.Notifications))
	for _, n := range res.Notifications {
		out = append(out, n.Message)
	}
	return out
}

func TestReconcileIdempotent(t *testing.T) {
	t.Parallel()
	s := []Stream{live("a", "T1", "G1"), live("b", "T2", "G2")}

	res := Reconcile(s, s, RecordNone{}, tagMessages{})
	if len(res.Notifications) != 0 {
		t.Fatalf("expected no notifications, got %v", messages(res))
	}
	if !reflect.DeepEqual(res.Next, s) {
		t.Fatalf("next state changed: %+v", res.Next)
	}
	if len(res.ToStart) != 0 || len(res.ToStop) != 0 {
		t.Fatalf("unexpected recorder actions: %+v %+v", res.ToStart, res.ToStop)
	}
}

func TestReconcileNewChannel(t *testing.T) {
	t.Parallel()
	prev := []Stream{live("a", "T1", "G1")}
	polled := []Stream{live("a", "T1", "G1"), live("b", "T2", "G2")}

	res := Reconcile(prev, polled, RecordNone{}, tagMessages{})
	want := []string{"start(b)"}
	if !reflect.DeepEqual(messages(res), want) {
		t.Fatalf("notifications = %v, want %v", messages(res), want)
	}
	if len(res.Next) != 2 || res.Next[0].LoginNormalized != "a" || res.Next[1].LoginNormalized != "b" {
		t.Fatalf("next state = %+v", res.Next)
	}
}

func TestReconcileEndReverseOrder(t *testing.T) {
	t.Parallel()
	prev := []Stream{live("a", "T1", "G1"), live("b", "T2", "G2")}

	res := Reconcile(prev, nil, RecordNone{}, tagMessages{})
	want := []string{"end(b)", "end(a)"}
	if !reflect.DeepEqual(messages(res), want) {
		t.Fatalf("notifications = %v, want %v", messages(res), want)
	}
	if len(res.Next) != 0 {
		t.Fatalf("next state should be empty, got %+v", res.Next)
	}
}

func TestReconcileTitleChange(t *testing.T) {
	t.Parallel()
	prev := []Stream{live("a", "T1", "G1")}
	polled := []Stream{live("a", "T2", "G1")}

	res := Reconcile(prev, polled, RecordNone{}, tagMessages{})
	want := []string{"title(a)"}
	if !reflect.DeepEqual(messages(res), want) {
		t.Fatalf("notifications = %v, want %v", messages(res), want)
	}
	if res.Next[0].Title != "T2" {
		t.Fatalf("next state kept stale title %q", res.Next[0].Title)
	}
}

func TestReconcileGameChange(t *testing.T) {
	t.Parallel()
	prev := []Stream{live("a", "T1", "G1")}
	polled := []Stream{live("a", "T1", "G2")}

	res := Reconcile(prev, polled, RecordNone{}, tagMessages{})
	want := []string{"game(a)"}
	if !reflect.DeepEqual(messages(res), want) {
		t.Fatalf("notifications = %v, want %v", messages(res), want)
	}
}

func TestReconcileTitleBeatsGame(t *testing.T) {
	t.Parallel()
	prev := []Stream{live("a", "T1", "G1")}
	polled := []Stream{live("a", "T2", "G2")}

	res := Reconcile(prev, polled, RecordNone{}, tagMessages{})
	want := []string{"title(a)"}
	if !reflect.DeepEqual(messages(res), want) {
		t.Fatalf("notifications = %v, want %v (exactly one, title wins)", messages(res), want)
	}
}

func TestReconcileNoChangeNoNoise(t *testing.T) {
	t.Parallel()
	prev := []Stream{live("a", "T1", "G1")}
	fresh := live("a", "T1", "G1")
	fresh.Duration = "02:00"

	res := Reconcile(prev, []Stream{fresh}, RecordNone{}, tagMessages{})
	if len(res.Notifications) != 0 {
		t.Fatalf("expected silence, got %v", messages(res))
	}
	if res.Next[0].Duration != "02:00" {
		t.Fatalf("fresh entry not carried into next state: %+v", res.Next[0])
	}
}

func TestReconcileRecorderActions(t *testing.T) {
	t.Parallel()
	rec := recordList{"a": {}, "b": {}}
	prev := []Stream{live("a", "T1", "G1"), live("c", "T3", "G3")}
	polled := []Stream{live("b", "T2", "G2")}

	res := Reconcile(prev, polled, rec, tagMessages{})

	if len(res.ToStart) != 1 || res.ToStart[0].LoginNormalized != "b" {
		t.Fatalf("toStart = %+v", res.ToStart)
	}
	// "c" went offline but is not on the allow-list.
	if len(res.ToStop) != 1 || res.ToStop[0].LoginNormalized != "a" {
		t.Fatalf("toStop = %+v", res.ToStop)
	}
}

func TestNormalizeLogin(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"StreamerName": "streamername",
		`esc\aped`:     "escaped",
		"plain":        "plain",
	}
	for in, want := range cases {
		if got := NormalizeLogin(in); got != want {
			t.Fatalf("NormalizeLogin(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDurationLabel(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		started time.Time
		want    string
	}{
		{now.Add(-3 * time.Minute), "00:03"},
		{now.Add(-83 * time.Minute), "01:23"},
		{now.Add(-25 * time.Hour), "25:00"},
		{now.Add(time.Minute), "00:00"}, // clock skew: never negative
	}
	for _, c := range cases {
		if got := DurationLabel(c.started, now); got != c.want {
			t.Fatalf("DurationLabel(%v) = %q, want %q", c.started, got, c.want)
		}
	}
}
