// Package kick polls the public Kick channel endpoint, one request per
// channel (the API has no batch lookup).
package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"streamnotify/internal/stream"
	logx "streamnotify/pkg/logx"
)

const defaultBaseURL = "https://kick.com/api/v2"

type Client struct {
	http    *http.Client
	baseURL string
	log     logx.Logger

	now func() time.Time
}

func New(log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: defaultBaseURL,
		log:     log,
		now:     time.Now,
	}
}

type channelResponse struct {
	User struct {
		Username string `json:"username"`
	} `json:"user"`
	Livestream *struct {
		SessionTitle string `json:"session_title"`
		StartTime    string `json:"start_time"`
		Categories   []struct {
			Name string `json:"name"`
		} `json:"categories"`
	} `json:"livestream"`
}

// LiveStreams returns the channels from logins that are currently live.
// A channel that fails to load is skipped with a warning rather than
// failing the whole poll; only zero usable responses is an error.
func (c *Client) LiveStreams(ctx context.Context, logins []string) ([]stream.Stream, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	now := c.now()
	out := make([]stream.Stream, 0, len(logins))
	failed := 0
	for _, login := range logins {
		ch, err := c.channel(ctx, login)
		if err != nil {
			c.log.Warn("channel fetch failed", logx.String("login", login), logx.Err(err))
			failed++
			continue
		}
		if ch.Livestream == nil {
			continue
		}

		game := ""
		if len(ch.Livestream.Categories) > 0 {
			game = ch.Livestream.Categories[0].Name
		}
		out = append(out, stream.Stream{
			Login:           ch.User.Username,
			LoginNormalized: stream.NormalizeLogin(ch.User.Username),
			Title:           ch.Livestream.SessionTitle,
			Game:            game,
			Duration:        stream.DurationLabel(parseStartTime(ch.Livestream.StartTime), now),
			Platform:        stream.PlatformKick,
		})
	}

	if failed == len(logins) {
		return nil, fmt.Errorf("all %d kick channel lookups failed", failed)
	}
	return out, nil
}

func (c *Client) channel(ctx context.Context, login string) (*channelResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/channels/"+login, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, b)
	}

	var ch channelResponse
	if err := json.NewDecoder(resp.Body).Decode(&ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// parseStartTime accepts the two timestamp shapes the endpoint has been
// seen returning.
func parseStartTime(raw string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
