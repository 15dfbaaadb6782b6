// Package statsapi is a narrow client for the external stats provider:
// team/player directory lookups and per-season game logs. It supplies
// raw tabular data only; nothing here derives analytics.
package statsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fortuna/courtside/internal/cache"
)

const (
	// DefaultTimeout for API requests
	DefaultTimeout = 15 * time.Second

	teamsCacheKey   = "statsapi:teams"
	playersCacheKey = "statsapi:players"
	cacheTTL        = 24 * time.Hour
)

// Team is one entry of the league team directory.
type Team struct {
	ID           int    `json:"id"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
}

// Player is one entry of the player directory.
type Player struct {
	ID       int    `json:"id"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

// Client fetches reference data from the stats provider. The team and
// player directories are static within a run, so each is a process-wide
// read-through cache with a capacity of one entry: populated on first
// successful access, guarded for single assignment, never invalidated.
// An optional Redis cache fronts the HTTP fetch across processes.
type Client struct {
	baseURL string
	http    *http.Client
	redis   *cache.RedisCache

	mu      sync.Mutex
	teams   []Team
	players []Player
}

// New creates a stats API client. redisCache may be nil.
func New(baseURL string, redisCache *cache.RedisCache) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		redis:   redisCache,
	}
}

// Teams returns the league team directory, fetching it at most once
// per process.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.teams != nil {
		return c.teams, nil
	}

	var payload struct {
		Teams []Team `json:"teams"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/teams", teamsCacheKey, &payload); err != nil {
		return nil, fmt.Errorf("fetching teams: %w", err)
	}

	c.teams = payload.Teams
	return c.teams, nil
}

// Players returns the player directory, fetching it at most once per
// process.
func (c *Client) Players(ctx context.Context) ([]Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.players != nil {
		return c.players, nil
	}

	var payload struct {
		Players []Player `json:"players"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/players", playersCacheKey, &payload); err != nil {
		return nil, fmt.Errorf("fetching players: %w", err)
	}

	c.players = payload.Players
	return c.players, nil
}

// TeamID resolves a team's full name to its provider ID.
func (c *Client) TeamID(ctx context.Context, fullName string) (int, error) {
	teams, err := c.Teams(ctx)
	if err != nil {
		return 0, err
	}

	for _, t := range teams {
		if t.FullName == fullName {
			return t.ID, nil
		}
	}

	return 0, fmt.Errorf("team %q not found", fullName)
}

// FindPlayer resolves a player by name: exact match first, then
// case-insensitive substring.
func (c *Client) FindPlayer(ctx context.Context, name string) (*Player, error) {
	players, err := c.Players(ctx)
	if err != nil {
		return nil, err
	}

	for i := range players {
		if players[i].FullName == name {
			return &players[i], nil
		}
	}

	lower := strings.ToLower(name)
	for i := range players {
		if strings.Contains(strings.ToLower(players[i].FullName), lower) {
			return &players[i], nil
		}
	}

	return nil, fmt.Errorf("player %q not found", name)
}

// PlayerGameLog fetches a player's per-game rows for a season, passed
// through as raw tabular data.
func (c *Client) PlayerGameLog(ctx context.Context, playerID int, season string) ([]map[string]interface{}, error) {
	u := fmt.Sprintf("%s/playergamelog?player_id=%d&season=%s", c.baseURL, playerID, url.QueryEscape(season))

	var payload struct {
		Rows []map[string]interface{} `json:"rows"`
	}
	if err := c.getJSON(ctx, u, "", &payload); err != nil {
		return nil, fmt.Errorf("fetching game log for player %d: %w", playerID, err)
	}

	return payload.Rows, nil
}

// getJSON fetches a URL into out, going through Redis first when a
// cache key is given.
func (c *Client) getJSON(ctx context.Context, rawURL, cacheKey string, out interface{}) error {
	if c.redis != nil && cacheKey != "" {
		if cached, err := c.redis.Get(ctx, cacheKey); err == nil && cached != "" {
			if err := json.Unmarshal([]byte(cached), out); err == nil {
				return nil
			}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if c.redis != nil && cacheKey != "" {
		// Best effort: a cache write failure never fails the lookup.
		_ = c.redis.Set(ctx, cacheKey, string(body), cacheTTL)
	}

	return nil
}
