package topitems

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"
)

// Source is the upstream listening-history provider consumed by the
// aggregator. internal/spotify.Client satisfies it; tests supply fakes.
type Source interface {
	TopTracks(ctx context.Context, tr TimeRange, limit int) ([]spotify.FullTrack, error)
	TopArtists(ctx context.Context, tr TimeRange, limit int) ([]spotify.FullArtist, error)
}

// Service orchestrates translation per requested kind and memoizes
// upstream results. One Service is constructed at process start and shared
// by every request.
type Service struct {
	tracks  *Cache[[]Track]
	artists *Cache[[]Artist]
}

// NewService creates an aggregation service with fresh caches.
func NewService() *Service {
	return &Service{
		tracks:  NewCache[[]Track](CacheTTL),
		artists: NewCache[[]Artist](CacheTTL),
	}
}

// TopTracks returns the user's ranked tracks, served from cache when fresh.
// Cache keys carry the time range, limit and user id so distinct callers
// and parameter combinations never collide.
func (s *Service) TopTracks(ctx context.Context, src Source, p Params, userID string) ([]Track, error) {
	key := fmt.Sprintf("top_tracks_%s_%d_%s", p.TimeRange, p.Limit, userID)
	return s.tracks.GetOrFetch(key, func() ([]Track, error) {
		page, err := src.TopTracks(ctx, p.TimeRange, p.Limit)
		if err != nil {
			return nil, err
		}
		return TracksFromPage(page), nil
	})
}

// TopArtists returns the user's ranked artists, served from cache when fresh.
func (s *Service) TopArtists(ctx context.Context, src Source, p Params, userID string) ([]Artist, error) {
	key := fmt.Sprintf("top_artists_%s_%d_%s", p.TimeRange, p.Limit, userID)
	return s.artists.GetOrFetch(key, func() ([]Artist, error) {
		page, err := src.TopArtists(ctx, p.TimeRange, p.Limit)
		if err != nil {
			return nil, err
		}
		return ArtistsFromPage(page), nil
	})
}

// TopAlbums derives the user's ranked albums from their ranked tracks.
func (s *Service) TopAlbums(ctx context.Context, src Source, p Params, userID string) ([]Album, error) {
	tracks, err := s.TopTracks(ctx, src, p, userID)
	if err != nil {
		return nil, err
	}
	return AlbumsFromTracks(tracks), nil
}

// BuildCanvasItems flattens the requested kind(s) into the ordered canvas
// item sequence. KindAll concatenates tracks, artists and albums in that
// fixed order. An empty result is valid; the composer renders a minimal
// canvas for it.
func (s *Service) BuildCanvasItems(ctx context.Context, src Source, p Params, userID string) ([]CanvasItem, error) {
	kinds := []Kind{p.Kind}
	if p.Kind == KindAll {
		kinds = []Kind{KindTracks, KindArtists, KindAlbums}
	}

	var items []CanvasItem
	for _, kind := range kinds {
		switch kind {
		case KindTracks:
			tracks, err := s.TopTracks(ctx, src, p, userID)
			if err != nil {
				return nil, err
			}
			for _, t := range tracks {
				items = append(items, CanvasItem{
					Title:    t.ArtistName + " - " + t.SongName,
					ImageURL: t.AlbumCoverURL,
				})
			}

		case KindArtists:
			artists, err := s.TopArtists(ctx, src, p, userID)
			if err != nil {
				return nil, err
			}
			for _, a := range artists {
				items = append(items, CanvasItem{Title: a.Name, ImageURL: a.ImageURL})
			}

		case KindAlbums:
			albums, err := s.TopAlbums(ctx, src, p, userID)
			if err != nil {
				return nil, err
			}
			for _, a := range albums {
				items = append(items, CanvasItem{
					Title:    a.ArtistName + " - " + a.Name,
					ImageURL: a.CoverURL,
				})
			}
		}
	}

	return items, nil
}
