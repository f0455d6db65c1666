package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	logx "streamnotify/pkg/logx"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New("client-id", "secret", logx.Nop())
	c.baseURL = srv.URL
	c.token = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"})
	c.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestLiveStreams(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Client-Id"); got != "client-id" {
			t.Errorf("Client-Id = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query()["user_login"]; len(got) != 2 {
			t.Errorf("user_login = %v", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"user_login":"StreamerA","user_name":"StreamerA","game_name":"Chess","type":"live",
			 "title":"morning games","started_at":"2026-03-01T10:37:00Z"},
			{"user_login":"vodbot","user_name":"vodbot","game_name":"","type":"","title":"rerun",
			 "started_at":"2026-03-01T01:00:00Z"}
		]}`))
	})

	got, err := c.LiveStreams(context.Background(), []string{"streamera", "vodbot"})
	if err != nil {
		t.Fatalf("LiveStreams: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only type=live entries, got %+v", got)
	}
	s := got[0]
	if s.LoginNormalized != "streamera" || s.Title != "morning games" || s.Game != "Chess" {
		t.Fatalf("stream = %+v", s)
	}
	if s.Duration != "01:23" {
		t.Fatalf("duration = %q, want 01:23", s.Duration)
	}
}

func TestLiveStreamsUpstreamError(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Too Many Requests"}`, http.StatusTooManyRequests)
	})

	if _, err := c.LiveStreams(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestLiveStreamsEmptyLogins(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty login list")
	})

	got, err := c.LiveStreams(context.Background(), nil)
	if err != nil || got != nil {
		t.Fatalf("LiveStreams(nil) = %v, %v", got, err)
	}
}

func TestUsers(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"login":"StreamerA","display_name":"Streamer A"}]}`))
	})

	got, err := c.Users(context.Background(), []string{"streamera", "goneuser"})
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(got) != 1 || got[0].Login != "streamera" || got[0].DisplayName != "Streamer A" {
		t.Fatalf("users = %+v", got)
	}
}
