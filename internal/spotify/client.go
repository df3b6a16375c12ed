// Package spotify wraps the Spotify Web API with the narrow surface the
// aggregation pipeline needs.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"

	"github.com/metalstats/metalstats/internal/topitems"
)

// UpstreamError is any non-auth Spotify API failure, carrying the HTTP
// status the API reported (0 for transport-level failures).
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("spotify: %s", e.Message)
	}
	return fmt.Sprintf("spotify: %s (status %d)", e.Message, e.Status)
}

// Client wraps the Spotify API client with convenience methods.
type Client struct {
	api *spotify.Client
}

// New creates a new Spotify client wrapper.
// The underlying client should already be authenticated.
func New(api *spotify.Client) *Client {
	return &Client{api: api}
}

// UserID returns the current user's Spotify ID.
func (c *Client) UserID(ctx context.Context) (string, error) {
	user, err := c.api.CurrentUser(ctx)
	if err != nil {
		return "", classify(err)
	}
	return user.ID, nil
}

// TopTracks fetches one page of the user's top tracks.
func (c *Client) TopTracks(ctx context.Context, tr topitems.TimeRange, limit int) ([]spotify.FullTrack, error) {
	page, err := c.api.CurrentUsersTopTracks(ctx,
		spotify.Limit(limit),
		spotify.Timerange(tr.SpotifyRange()),
	)
	if err != nil {
		return nil, classify(err)
	}
	return page.Tracks, nil
}

// TopArtists fetches one page of the user's top artists.
func (c *Client) TopArtists(ctx context.Context, tr topitems.TimeRange, limit int) ([]spotify.FullArtist, error) {
	page, err := c.api.CurrentUsersTopArtists(ctx,
		spotify.Limit(limit),
		spotify.Timerange(tr.SpotifyRange()),
	)
	if err != nil {
		return nil, classify(err)
	}
	return page.Artists, nil
}

// classify maps zmb3 errors onto UpstreamError so callers can surface the
// upstream status without importing the SDK's error type.
func classify(err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.Status, Message: apiErr.Message}
	}
	return &UpstreamError{Message: err.Error()}
}

// StatusOrDefault returns the upstream status carried by err, or fallback
// (typically http.StatusBadGateway) when err has none.
func StatusOrDefault(err error, fallback int) int {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Status >= http.StatusBadRequest {
		return ue.Status
	}
	return fallback
}

var _ topitems.Source = (*Client)(nil)
