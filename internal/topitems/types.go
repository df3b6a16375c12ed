// Package topitems aggregates a user's ranked Spotify listening history
// into the uniform records the canvas renderer consumes.
package topitems

import (
	"fmt"
	"strconv"

	"github.com/zmb3/spotify/v2"
)

// Kind selects which ranked collection a request is about.
type Kind string

const (
	KindTracks  Kind = "tracks"
	KindArtists Kind = "artists"
	KindAlbums  Kind = "albums"
	KindAll     Kind = "all"
)

// TimeRange mirrors Spotify's top-items time_range parameter.
type TimeRange string

const (
	ShortTerm  TimeRange = "short_term"
	MediumTerm TimeRange = "medium_term"
	LongTerm   TimeRange = "long_term"
)

// Limit bounds accepted by the Spotify top-items endpoints.
const (
	MinLimit     = 1
	MaxLimit     = 50
	DefaultLimit = 10
)

// ValidationError reports a malformed request parameter. It is rejected
// before any upstream or cache work happens.
type ValidationError struct {
	Param string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Param, e.Value)
}

// ParseKind validates a type query value. Empty means the default (tracks).
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return KindTracks, nil
	case KindTracks, KindArtists, KindAlbums, KindAll:
		return Kind(s), nil
	}
	return "", &ValidationError{Param: "type", Value: s}
}

// ParseTimeRange validates a time_range query value. Empty means medium_term.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return MediumTerm, nil
	case ShortTerm, MediumTerm, LongTerm:
		return TimeRange(s), nil
	}
	return "", &ValidationError{Param: "time_range", Value: s}
}

// Params is one validated top-items request.
type Params struct {
	Kind      Kind
	TimeRange TimeRange
	Limit     int
}

// ParseParams validates raw query values and applies defaults
// (tracks, medium_term, 10). An empty limit string means the default.
func ParseParams(kind, timeRange, limit string) (Params, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return Params{}, err
	}

	tr, err := ParseTimeRange(timeRange)
	if err != nil {
		return Params{}, err
	}

	n := DefaultLimit
	if limit != "" {
		parsed, err := strconv.Atoi(limit)
		if err != nil {
			return Params{}, &ValidationError{Param: "limit", Value: limit}
		}
		n = parsed
	}
	if n < MinLimit || n > MaxLimit {
		return Params{}, &ValidationError{Param: "limit", Value: limit}
	}

	return Params{Kind: k, TimeRange: tr, Limit: n}, nil
}

// SpotifyRange converts a TimeRange to the zmb3 client's Range type.
func (tr TimeRange) SpotifyRange() spotify.Range {
	switch tr {
	case ShortTerm:
		return spotify.ShortTermRange
	case LongTerm:
		return spotify.LongTermRange
	default:
		return spotify.MediumTermRange
	}
}

// Track is one ranked track with its album art reference.
type Track struct {
	ArtistName    string `json:"artist_name"`
	SongName      string `json:"song_name"`
	AlbumName     string `json:"album_name"`
	AlbumCoverURL string `json:"album_cover_url,omitempty"`
}

// Artist is one ranked artist.
type Artist struct {
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// Album is one ranked album, derived from track data (Spotify has no
// native top-albums endpoint).
type Album struct {
	ArtistName string `json:"artist_name"`
	Name       string `json:"name"`
	CoverURL   string `json:"cover_url,omitempty"`
}

// CanvasItem is the uniform display record the canvas renderer consumes:
// a caption title plus an optional cover image reference. An empty
// ImageURL means "use the placeholder".
type CanvasItem struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}
