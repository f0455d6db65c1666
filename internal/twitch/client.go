// Package twitch polls the Helix API for live streams and user records,
// authenticating with an app access token.
package twitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"streamnotify/internal/stream"
	logx "streamnotify/pkg/logx"
)

const (
	helixBaseURL = "https://api.twitch.tv/helix"
	tokenURL     = "https://id.twitch.tv/oauth2/token"
)

// UserInfo is one row of the user roster used for ban detection.
type UserInfo struct {
	Login       string
	DisplayName string
}

type Client struct {
	clientID string
	token    oauth2.TokenSource
	http     *http.Client
	baseURL  string
	log      logx.Logger

	now func() time.Time
}

func New(clientID, clientSecret string, log logx.Logger) *Client {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		clientID: clientID,
		token:    cc.TokenSource(context.Background()),
		http:     &http.Client{Timeout: 15 * time.Second},
		baseURL:  helixBaseURL,
		log:      log,
		now:      time.Now,
	}
}

type streamsResponse struct {
	Data []struct {
		UserLogin string    `json:"user_login"`
		UserName  string    `json:"user_name"`
		GameName  string    `json:"game_name"`
		Type      string    `json:"type"`
		Title     string    `json:"title"`
		StartedAt time.Time `json:"started_at"`
	} `json:"data"`
}

// LiveStreams returns the channels from logins that are currently live.
func (c *Client) LiveStreams(ctx context.Context, logins []string) ([]stream.Stream, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	q := url.Values{}
	for _, l := range logins {
		q.Add("user_login", l)
	}
	q.Set("first", "100")

	var resp streamsResponse
	if err := c.get(ctx, "/streams", q, &resp); err != nil {
		return nil, fmt.Errorf("helix streams: %w", err)
	}

	now := c.now()
	out := make([]stream.Stream, 0, len(resp.Data))
	for _, d := range resp.Data {
		if d.Type != "live" {
			continue
		}
		s := stream.Stream{
			Login:           d.UserName,
			LoginNormalized: stream.NormalizeLogin(d.UserLogin),
			Title:           d.Title,
			Game:            d.GameName,
			Duration:        stream.DurationLabel(d.StartedAt, now),
			Platform:        stream.PlatformTwitch,
		}
		out = append(out, s)
		c.log.Debug("live", logx.String("login", s.LoginNormalized), logx.String("duration", s.Duration))
	}
	return out, nil
}

type usersResponse struct {
	Data []struct {
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

// Users resolves which of the given logins still exist. A banned or
// deleted account simply drops out of the response.
func (c *Client) Users(ctx context.Context, logins []string) ([]UserInfo, error) {
	if len(logins) == 0 {
		return nil, nil
	}

	q := url.Values{}
	for _, l := range logins {
		q.Add("login", l)
	}

	var resp usersResponse
	if err := c.get(ctx, "/users", q, &resp); err != nil {
		return nil, fmt.Errorf("helix users: %w", err)
	}

	out := make([]UserInfo, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, UserInfo{
			Login:       stream.NormalizeLogin(d.Login),
			DisplayName: d.DisplayName,
		})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, into any) error {
	tok, err := c.token.Token()
	if err != nil {
		return fmt.Errorf("app token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Client-Id", c.clientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, b)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}
