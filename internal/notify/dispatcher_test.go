package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"streamnotify/internal/stream"
	kit "streamnotify/internal/transport"
	logx "streamnotify/pkg/logx"
)

type sentItem struct {
	kind string // "text" or "photo"
	body string
}

// fakeAdapter records sends and can fail selectively.
type fakeAdapter struct {
	sent     []sentItem
	failOn   map[int]error // index into send sequence
	editErr  error
	editText string
}

func (f *fakeAdapter) Start(context.Context, chan<- kit.Update) error { return nil }
func (f *fakeAdapter) Stop(context.Context) error                     { return nil }

func (f *fakeAdapter) SendText(_ context.Context, _ kit.ChatTarget, text string, _ *kit.SendOptions) (kit.MessageRef, error) {
	if err := f.failOn[len(f.sent)]; err != nil {
		f.sent = append(f.sent, sentItem{kind: "fail"})
		return kit.MessageRef{}, err
	}
	f.sent = append(f.sent, sentItem{kind: "text", body: text})
	return kit.MessageRef{MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) SendPhoto(_ context.Context, _ kit.ChatTarget, photo, caption string, _ *kit.SendOptions) (kit.MessageRef, error) {
	if err := f.failOn[len(f.sent)]; err != nil {
		f.sent = append(f.sent, sentItem{kind: "fail"})
		return kit.MessageRef{}, err
	}
	f.sent = append(f.sent, sentItem{kind: "photo", body: photo + "|" + caption})
	return kit.MessageRef{MessageID: len(f.sent)}, nil
}

func (f *fakeAdapter) EditText(_ context.Context, _ kit.MessageRef, text string, _ *kit.SendOptions) error {
	f.editText = text
	return f.editErr
}

func newTestDispatcher(ad *fakeAdapter) *Dispatcher {
	d := NewDispatcher(ad, time.Millisecond, logx.Nop())
	d.sleep = func(context.Context, time.Duration) {}
	return d
}

func TestDispatchOrderAndKinds(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	d := newTestDispatcher(ad)

	batch := []stream.Notification{
		{Message: "first"},
		{Message: "second", Photo: "p.jpg"},
		{Message: "third"},
	}
	failed := d.Dispatch(context.Background(), kit.ChatTarget{ChatID: 1}, batch)

	if failed != 0 {
		t.Fatalf("failed = %d, want 0", failed)
	}
	if len(ad.sent) != 3 {
		t.Fatalf("sent %d messages, want 3", len(ad.sent))
	}
	if ad.sent[0].kind != "text" || ad.sent[0].body != "first" {
		t.Fatalf("sent[0] = %+v", ad.sent[0])
	}
	if ad.sent[1].kind != "photo" || ad.sent[1].body != "p.jpg|second" {
		t.Fatalf("sent[1] = %+v", ad.sent[1])
	}
	if ad.sent[2].body != "third" {
		t.Fatalf("sent[2] = %+v", ad.sent[2])
	}
}

func TestDispatchContinuesAfterFailure(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{failOn: map[int]error{1: fmt.Errorf("network hiccup")}}
	d := newTestDispatcher(ad)

	batch := []stream.Notification{
		{Message: "a"}, {Message: "b"}, {Message: "c"},
	}
	failed := d.Dispatch(context.Background(), kit.ChatTarget{ChatID: 1}, batch)

	if len(ad.sent) != 3 {
		t.Fatalf("batch aborted early: %+v", ad.sent)
	}
	if ad.sent[2].kind != "text" || ad.sent[2].body != "c" {
		t.Fatalf("tail of batch not delivered: %+v", ad.sent[2])
	}
	if failed != 1 {
		t.Fatalf("failed = %d, want 1", failed)
	}
}

func TestPinUpdateSuccess(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{}
	p := NewPinUpdater(ad, logx.Nop())

	ok := p.Update(context.Background(), kit.MessageRef{ChatID: 1, MessageID: 7}, "status")
	if !ok {
		t.Fatal("expected success")
	}
	if ad.editText != "status" {
		t.Fatalf("edit text = %q", ad.editText)
	}
}

func TestPinUpdateNotModifiedIsSuccess(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{editErr: fmt.Errorf("edit: %w", kit.ErrNotModified)}
	p := NewPinUpdater(ad, logx.Nop())

	if !p.Update(context.Background(), kit.MessageRef{ChatID: 1, MessageID: 7}, "same") {
		t.Fatal("unchanged content must count as success")
	}
}

func TestPinUpdateRealFailure(t *testing.T) {
	t.Parallel()
	ad := &fakeAdapter{editErr: errors.New("message to edit not found")}
	p := NewPinUpdater(ad, logx.Nop())

	if p.Update(context.Background(), kit.MessageRef{ChatID: 1, MessageID: 7}, "status") {
		t.Fatal("real failure must report false")
	}
}
