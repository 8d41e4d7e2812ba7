// README: Typed HTTP client for the group and match endpoints.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"campusride/internal/modules/matching"
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

type apiClient struct {
	base string
	http *http.Client
}

func newAPIClient(base string) *apiClient {
	return &apiClient{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

type createGroupBody struct {
	CreatorUID    types.ID `json:"creator_uid,omitempty"`
	Start         string   `json:"start"`
	Dest          string   `json:"dest"`
	Stops         []string `json:"stops,omitempty"`
	Capacity      int      `json:"capacity"`
	DepartureDate string   `json:"departure_date,omitempty"`
	Fare          int64    `json:"fare"`
}

type findGroupsBody struct {
	UID           types.ID `json:"uid,omitempty"`
	Start         string   `json:"start,omitempty"`
	Dest          string   `json:"dest,omitempty"`
	DepartureDate string   `json:"departure_date,omitempty"`
	WindowMinutes *int     `json:"time_window_minutes,omitempty"`
	MaxGroupSize  *int     `json:"max_group_size,omitempty"`
	Mode          string   `json:"mode,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
}

type findGroupsResp struct {
	Recommendations []matching.Result `json:"recommendations"`
}

type createGroupResp struct {
	GroupID types.ID `json:"gid"`
}

type call struct {
	status  int
	latency time.Duration
}

// do sends body as JSON and decodes a 2xx response into out when out is non-nil.
func (c *apiClient) do(ctx context.Context, method, path string, body, out any) (call, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return call{}, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return call{}, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return call{}, err
	}
	defer resp.Body.Close()
	res := call{status: resp.StatusCode, latency: time.Since(start)}

	if out == nil || resp.StatusCode/100 != 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return res, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return res, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return res, nil
}

func (c *apiClient) health(ctx context.Context) (call, error) {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *apiClient) listGroups(ctx context.Context) ([]records.Group, call, error) {
	var groups []records.Group
	res, err := c.do(ctx, http.MethodGet, "/groups", nil, &groups)
	return groups, res, err
}

func (c *apiClient) createGroup(ctx context.Context, body createGroupBody) (types.ID, call, error) {
	var out createGroupResp
	res, err := c.do(ctx, http.MethodPost, "/create_group", body, &out)
	return out.GroupID, res, err
}

func (c *apiClient) joinGroup(ctx context.Context, uid, gid types.ID) (call, error) {
	return c.do(ctx, http.MethodPost, "/join_group", map[string]types.ID{"uid": uid, "gid": gid}, nil)
}

func (c *apiClient) findGroups(ctx context.Context, body any) ([]matching.Result, call, error) {
	var out findGroupsResp
	res, err := c.do(ctx, http.MethodPost, "/find_groups", body, &out)
	return out.Recommendations, res, err
}
