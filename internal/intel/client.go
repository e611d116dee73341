// Package intel queries the demo backend for live ban and incident data.
package intel

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hacklab-sim/internal/battle"
)

const defaultTimeout = 3 * time.Second

// Client fetches banned IPs and recent incidents from the demo backend.
// Any failure degrades to an empty result; callers never see partial data.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given backend base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Ban is one banned source address reported by the backend.
type Ban struct {
	IP        string    `json:"ip"`
	Reason    string    `json:"reason,omitempty"`
	BannedAt  time.Time `json:"banned_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Incident is one resolved security incident reported by the backend.
type Incident struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Severity   string    `json:"severity,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("backend status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Bans returns the currently banned IPs, or an empty list on any failure.
func (c *Client) Bans(ctx context.Context) []Ban {
	var out []Ban
	if err := c.get(ctx, "/api/bans", &out); err != nil {
		return nil
	}
	return out
}

// Incidents returns recently resolved incidents, or an empty list on any
// failure.
func (c *Client) Incidents(ctx context.Context) []Incident {
	var out []Incident
	if err := c.get(ctx, "/api/incidents", &out); err != nil {
		return nil
	}
	return out
}

// Fetch implements battle.IntelProvider. An error is returned only when
// both lookups fail, so a half-reachable backend still yields counts.
func (c *Client) Fetch(ctx context.Context) (battle.IntelSummary, error) {
	var bans []Ban
	var incidents []Incident
	errBans := c.get(ctx, "/api/bans", &bans)
	errInc := c.get(ctx, "/api/incidents", &incidents)
	if errBans != nil && errInc != nil {
		return battle.IntelSummary{}, fmt.Errorf("intel fetch: %w", errBans)
	}
	return battle.IntelSummary{BannedIPs: len(bans), Incidents: len(incidents)}, nil
}

var _ battle.IntelProvider = (*Client)(nil)
