package app

import (
	"context"
	"encoding/json"
	"sort"

	"streamnotify/internal/storage"
	"streamnotify/internal/stream"
	logx "streamnotify/pkg/logx"
)

// checkBans compares the configured Twitch logins against the user
// lookup. An account missing from the response is banned or deleted;
// one that reappears is unbanned. The per-login ban flag persists across
// restarts so a restart never re-announces an old ban.
//
// The very first run (no stored roster) seeds the flags silently: the
// bot cannot tell a pre-existing ban from a fresh one.
func (a *App) checkBans(ctx context.Context) []stream.Notification {
	if a.twitch == nil || len(a.sources) == 0 {
		return nil
	}

	var logins []string
	for _, src := range a.sources {
		if src.name == "twitch" {
			logins = src.logins
		}
	}
	if len(logins) == 0 {
		return nil
	}

	users, err := a.twitch.Users(ctx, logins)
	if err != nil {
		a.log.Warn("user lookup failed", logx.Err(err))
		return nil
	}
	present := make(map[string]bool, len(users))
	for _, u := range users {
		present[u.Login] = true
	}

	banned, seeded := a.loadBanRoster(ctx)
	if !seeded {
		for _, login := range logins {
			banned[login] = !present[login]
		}
		a.saveBanRoster(ctx, banned)
		return nil
	}

	a.mu.Lock()
	msgs := a.formatter
	a.mu.Unlock()

	var out []stream.Notification
	changed := false
	for _, login := range logins {
		switch {
		case !present[login] && !banned[login]:
			banned[login] = true
			changed = true
			out = append(out, msgs.UserBanned(login))
			a.log.Info("channel banned", logx.String("login", login))
		case present[login] && banned[login]:
			banned[login] = false
			changed = true
			out = append(out, msgs.UserUnbanned(login))
			a.log.Info("channel unbanned", logx.String("login", login))
		}
	}
	if changed {
		a.saveBanRoster(ctx, banned)
	}
	return out
}

// loadBanRoster returns the stored per-login ban flags and whether a
// roster existed at all. Without storage the roster lives only in
// memory for the life of the process.
func (a *App) loadBanRoster(ctx context.Context) (map[string]bool, bool) {
	a.mu.Lock()
	mem := a.banRoster
	a.mu.Unlock()
	if mem != nil {
		return mem, true
	}

	roster := map[string]bool{}
	if a.store == nil {
		a.mu.Lock()
		a.banRoster = roster
		a.mu.Unlock()
		return roster, false
	}

	raw, ok, err := a.store.Get(ctx, storage.KeyUsers)
	if err != nil {
		a.log.Warn("ban roster load failed", logx.Err(err))
		return roster, false
	}
	if !ok {
		return roster, false
	}
	if err := json.Unmarshal([]byte(raw), &roster); err != nil {
		a.log.Warn("dropping malformed ban roster", logx.Err(err))
		return map[string]bool{}, false
	}

	a.mu.Lock()
	a.banRoster = roster
	a.mu.Unlock()
	return roster, true
}

func (a *App) saveBanRoster(ctx context.Context, roster map[string]bool) {
	a.mu.Lock()
	a.banRoster = roster
	a.mu.Unlock()

	if a.store == nil {
		return
	}
	b, err := json.Marshal(roster)
	if err != nil {
		return
	}
	if err := a.store.Set(ctx, storage.KeyUsers, string(b)); err != nil {
		a.log.Warn("ban roster save failed", logx.Err(err))
	}
}

// bannedLogins lists currently banned logins, sorted for stable output.
func (a *App) bannedLogins() []string {
	a.mu.Lock()
	roster := a.banRoster
	a.mu.Unlock()

	var out []string
	for login, b := range roster {
		if b {
			out = append(out, login)
		}
	}
	sort.Strings(out)
	return out
}
