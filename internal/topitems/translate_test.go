package topitems

import (
	"reflect"
	"testing"

	"github.com/zmb3/spotify/v2"
)

func fullTrack(artist, song, album, coverURL string) spotify.FullTrack {
	t := spotify.FullTrack{
		SimpleTrack: spotify.SimpleTrack{
			Name:    song,
			Artists: []spotify.SimpleArtist{{Name: artist}, {Name: "Someone Else"}},
		},
		Album: spotify.SimpleAlbum{Name: album},
	}
	if coverURL != "" {
		t.Album.Images = []spotify.Image{{URL: coverURL}, {URL: coverURL + "?small"}}
	}
	return t
}

func TestTracksFromPage(t *testing.T) {
	page := []spotify.FullTrack{
		fullTrack("Mgla", "Exercises in Futility VI", "Exercises in Futility", "http://img/eif.jpg"),
		fullTrack("Bolt Thrower", "The Killchain", "Those Once Loyal", ""),
	}

	got := TracksFromPage(page)
	want := []Track{
		{ArtistName: "Mgla", SongName: "Exercises in Futility VI", AlbumName: "Exercises in Futility", AlbumCoverURL: "http://img/eif.jpg"},
		{ArtistName: "Bolt Thrower", SongName: "The Killchain", AlbumName: "Those Once Loyal"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("TracksFromPage() = %+v, want %+v", got, want)
	}
}

func TestArtistsFromPage(t *testing.T) {
	page := []spotify.FullArtist{
		{
			SimpleArtist: spotify.SimpleArtist{Name: "Emperor"},
			Images:       []spotify.Image{{URL: "http://img/emperor.jpg"}},
		},
		{
			// No images: the URL stays empty and the fetcher substitutes
			// the placeholder later.
			SimpleArtist: spotify.SimpleArtist{Name: "Obscure Demo Band"},
		},
	}

	got := ArtistsFromPage(page)
	want := []Artist{
		{Name: "Emperor", ImageURL: "http://img/emperor.jpg"},
		{Name: "Obscure Demo Band"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ArtistsFromPage() = %+v, want %+v", got, want)
	}
}

func TestAlbumsFromTracks(t *testing.T) {
	tracks := []Track{
		{ArtistName: "Mgla", SongName: "VI", AlbumName: "Exercises in Futility", AlbumCoverURL: "http://img/eif.jpg"},
		{ArtistName: "Mgla", SongName: "II", AlbumName: "Exercises in Futility", AlbumCoverURL: "http://img/eif.jpg"},
		{ArtistName: "Bolt Thrower", SongName: "The Killchain", AlbumName: "Those Once Loyal"},
		{ArtistName: "Mgla", SongName: "IV", AlbumName: "Exercises in Futility"},
	}

	want := []Album{
		{ArtistName: "Mgla", Name: "Exercises in Futility", CoverURL: "http://img/eif.jpg"},
		{ArtistName: "Bolt Thrower", Name: "Those Once Loyal"},
	}

	got := AlbumsFromTracks(tracks)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AlbumsFromTracks() = %+v, want %+v", got, want)
	}

	// Derivation is idempotent: the same input yields the same sequence.
	again := AlbumsFromTracks(tracks)
	if !reflect.DeepEqual(again, want) {
		t.Errorf("AlbumsFromTracks() second run = %+v, want %+v", again, want)
	}
}

func TestAlbumsFromTracksEmpty(t *testing.T) {
	if got := AlbumsFromTracks(nil); len(got) != 0 {
		t.Errorf("AlbumsFromTracks(nil) = %+v, want empty", got)
	}
}
