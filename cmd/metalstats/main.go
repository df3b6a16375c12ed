// Command metalstats runs the metalstats web application: it renders
// report-card images of a Spotify user's top tracks, artists and albums
// and keeps a public showcase feed of published cards.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/metalstats/metalstats/internal/web"
	webfs "github.com/metalstats/metalstats/web"
)

const version = "1.0.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("please set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("please set the DATABASE_URL environment variable")
	}

	addr := envOr("ADDR", web.DefaultAddr)
	redirectURL := envOr("SPOTIFY_REDIRECT_URI", "http://"+addr+"/callback")
	imagesDir := envOr("IMAGES_DIR", "./images")

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(context.Background(), web.ServerConfig{
		Addr:         addr,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		DatabaseURL:  databaseURL,
		ImagesDir:    imagesDir,
		Version:      version,
		TemplatesFS:  templates,
		StaticFS:     static,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
