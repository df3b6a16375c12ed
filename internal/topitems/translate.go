package topitems

import "github.com/zmb3/spotify/v2"

// TracksFromPage converts one page of Spotify top tracks. Only the first
// listed artist and the first album image are kept; a track whose album
// carries no images gets an empty cover URL, which the image fetcher later
// resolves to the placeholder.
func TracksFromPage(items []spotify.FullTrack) []Track {
	tracks := make([]Track, 0, len(items))

	for _, t := range items {
		track := Track{
			SongName:  t.Name,
			AlbumName: t.Album.Name,
		}
		if len(t.Artists) > 0 {
			track.ArtistName = t.Artists[0].Name
		}
		if len(t.Album.Images) > 0 {
			track.AlbumCoverURL = t.Album.Images[0].URL
		}
		tracks = append(tracks, track)
	}

	return tracks
}

// ArtistsFromPage converts one page of Spotify top artists, keeping the
// first image or none.
func ArtistsFromPage(items []spotify.FullArtist) []Artist {
	artists := make([]Artist, 0, len(items))

	for _, a := range items {
		artist := Artist{Name: a.Name}
		if len(a.Images) > 0 {
			artist.ImageURL = a.Images[0].URL
		}
		artists = append(artists, artist)
	}

	return artists
}

// AlbumsFromTracks derives a ranked album list from ranked tracks: one
// Album per distinct album name, first occurrence wins, order preserved.
func AlbumsFromTracks(tracks []Track) []Album {
	seen := make(map[string]struct{}, len(tracks))
	albums := make([]Album, 0, len(tracks))

	for _, t := range tracks {
		if _, ok := seen[t.AlbumName]; ok {
			continue
		}
		seen[t.AlbumName] = struct{}{}
		albums = append(albums, Album{
			ArtistName: t.ArtistName,
			Name:       t.AlbumName,
			CoverURL:   t.AlbumCoverURL,
		})
	}

	return albums
}
