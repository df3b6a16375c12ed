package web

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net"
	"net/http"
	"time"

	spotifyapi "github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/metalstats/metalstats/internal/canvas"
	"github.com/metalstats/metalstats/internal/ratelimit"
	"github.com/metalstats/metalstats/internal/showcase"
	"github.com/metalstats/metalstats/internal/spotify"
	"github.com/metalstats/metalstats/internal/topitems"
)

// Sentinel errors for the credential gate.
var (
	// errUnauthenticated means the session holds no credential at all.
	errUnauthenticated = errors.New("not authenticated")

	// errUpstreamAuth means refreshing an expired credential failed. The
	// stored credential is deliberately left in place; the user can always
	// re-login explicitly.
	errUpstreamAuth = errors.New("refreshing spotify credential")
)

// showcaseFeedLimit caps how many items the feed endpoints return.
const showcaseFeedLimit = 50

// Upstream is the listening-history surface handlers consume.
type Upstream interface {
	topitems.Source
	UserID(ctx context.Context) (string, error)
}

// UpstreamFactory builds an Upstream bound to a caller's credential.
type UpstreamFactory func(ctx context.Context, token *oauth2.Token) Upstream

// TokenRefresher exchanges a stale credential for a fresh one.
type TokenRefresher interface {
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// oauthRefresher refreshes tokens against the Spotify accounts service.
type oauthRefresher struct {
	config *oauth2.Config
}

func newOAuthRefresher(clientID, clientSecret string) *oauthRefresher {
	return &oauthRefresher{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
	}
}

func (r *oauthRefresher) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	// Force the token source to refresh by presenting only the refresh token.
	stale := &oauth2.Token{RefreshToken: token.RefreshToken}
	return r.config.TokenSource(ctx, stale).Token()
}

// Handlers contains the HTTP handlers for the application.
type Handlers struct {
	auth      *spotifyauth.Authenticator
	refresher TokenRefresher
	upstream  UpstreamFactory
	sessions  SessionManager
	templates *Templates
	top       *topitems.Service
	fetcher   *canvas.Fetcher
	composer  *canvas.Composer
	limiter   *ratelimit.Limiter
	store     *showcase.Store
	images    *showcase.ImageDir
	logger    *slog.Logger
	version   string
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(cfg HandlersConfig) *Handlers {
	h := &Handlers{
		auth:      cfg.Auth,
		refresher: cfg.Refresher,
		upstream:  cfg.Upstream,
		sessions:  cfg.Sessions,
		templates: cfg.Templates,
		top:       cfg.Top,
		fetcher:   cfg.Fetcher,
		composer:  cfg.Composer,
		limiter:   cfg.Limiter,
		store:     cfg.Store,
		images:    cfg.Images,
		logger:    cfg.Logger,
		version:   cfg.Version,
	}

	if h.upstream == nil {
		h.upstream = func(ctx context.Context, token *oauth2.Token) Upstream {
			return spotify.New(spotifyapi.New(h.auth.Client(ctx, token)))
		}
	}

	return h
}

// HandlersConfig wires collaborators into Handlers.
type HandlersConfig struct {
	Auth      *spotifyauth.Authenticator
	Refresher TokenRefresher
	Upstream  UpstreamFactory
	Sessions  SessionManager
	Templates *Templates
	Top       *topitems.Service
	Fetcher   *canvas.Fetcher
	Composer  *canvas.Composer
	Limiter   *ratelimit.Limiter
	Store     *showcase.Store
	Images    *showcase.ImageDir
	Logger    *slog.Logger
	Version   string
}

// ============================================================================
// Credential gate
// ============================================================================

// gate resolves the caller's session and guarantees the returned upstream
// client carries a non-expired credential. An expired credential is
// refreshed and persisted into the session store before any upstream
// query is issued. The session is a snapshot, so concurrent requests on
// the same expired credential may each refresh; the last persisted token
// wins, as with the upstream cache.
func (h *Handlers) gate(r *http.Request) (Upstream, *Session, error) {
	session := h.sessions.GetFromRequest(r)
	if session == nil || session.Token == nil {
		return nil, nil, errUnauthenticated
	}

	token := session.Token
	if !token.Valid() {
		fresh, err := h.refresher.Refresh(r.Context(), token)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", errUpstreamAuth, err)
		}
		h.sessions.UpdateToken(r.Context(), session.ID, fresh)
		token = fresh
	}

	return h.upstream(r.Context(), token), session, nil
}

// writeError maps the error taxonomy onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	var validation *topitems.ValidationError

	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.Is(err, errUnauthenticated):
		http.Error(w, "Not authenticated. Please login first.", http.StatusUnauthorized)
	case errors.Is(err, ratelimit.ErrRateLimited):
		http.Error(w, "Too many requests. Please wait a minute.", http.StatusTooManyRequests)
	case errors.Is(err, errUpstreamAuth):
		http.Error(w, "Spotify authentication failed.", http.StatusBadGateway)
	default:
		h.logger.Error("request failed", slog.String("error", err.Error()))
		http.Error(w, "Upstream request failed.", spotify.StatusOrDefault(err, http.StatusBadGateway))
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", slog.String("error", err.Error()))
	}
}

// ============================================================================
// Pages
// ============================================================================

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)

	data := HomePageData{
		PageData: PageData{
			Title:       "metalstats",
			CurrentPath: r.URL.Path,
		},
		Authenticated: session != nil,
	}

	if session != nil {
		data.User = &UserData{
			ID:   session.UserID,
			Name: session.UserName,
		}
	}

	h.renderPage(w, "home", data)
}

// About handles the about page (GET /about).
func (h *Handlers) About(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, "about", PageData{
		Title:       "About",
		CurrentPath: r.URL.Path,
	})
}

// ShowcaseGallery handles the showcase gallery page (GET /po-tos).
func (h *Handlers) ShowcaseGallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Recent(r.Context(), showcaseFeedLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.renderPage(w, "showcase", ShowcasePageData{
		PageData: PageData{
			Title:       "Showcase",
			CurrentPath: r.URL.Path,
		},
		Items: items,
	})
}

func (h *Handlers) renderPage(w http.ResponseWriter, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, page, data); err != nil {
		h.logger.Error("rendering template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Failed to render template", http.StatusInternalServerError)
	}
}

// Healthcheck reports service liveness (GET /healthcheck).
func (h *Handlers) Healthcheck(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"version":   h.version,
		"timestamp": time.Now().UTC(),
	})
}

// ============================================================================
// Auth
// ============================================================================

// Login initiates the Spotify OAuth flow (GET /auth/login).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateOAuthState()
	if err != nil {
		http.Error(w, "Failed to generate state", http.StatusInternalServerError)
		return
	}

	// Store state in cookie for validation on callback
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300, // 5 minutes
	})

	http.Redirect(w, r, h.auth.AuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the OAuth callback from Spotify (GET /callback).
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil {
		http.Error(w, "Missing state cookie", http.StatusBadRequest)
		return
	}

	state := r.URL.Query().Get("state")
	if state != stateCookie.Value {
		http.Error(w, "State mismatch", http.StatusBadRequest)
		return
	}

	// Clear state cookie
	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		http.Error(w, fmt.Sprintf("Spotify auth error: %s", errMsg), http.StatusBadRequest)
		return
	}

	token, err := h.auth.Token(r.Context(), state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusInternalServerError)
		return
	}

	client := spotifyapi.New(h.auth.Client(r.Context(), token))
	user, err := client.CurrentUser(r.Context())
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}

	session, err := h.sessions.Create(r.Context(), token, user.ID, user.DisplayName)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.sessions.SetCookie(w, session)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// Logout clears the session and redirects to home (POST /auth/logout).
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.sessions.GetFromRequest(r)
	if session != nil {
		h.sessions.Delete(r.Context(), session.ID)
	}

	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// generateOAuthState creates a random state string for OAuth.
func generateOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// ============================================================================
// Top items
// ============================================================================

func paramsFromRequest(r *http.Request) (topitems.Params, error) {
	q := r.URL.Query()
	return topitems.ParseParams(q.Get("type"), q.Get("time_range"), q.Get("limit"))
}

// TopItems returns the caller's ranked items as JSON (GET /top).
func (h *Handlers) TopItems(w http.ResponseWriter, r *http.Request) {
	params, err := paramsFromRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	src, _, err := h.gate(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	userID, err := src.UserID(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	data := make(map[string]any)
	kinds := []topitems.Kind{params.Kind}
	if params.Kind == topitems.KindAll {
		kinds = []topitems.Kind{topitems.KindTracks, topitems.KindArtists, topitems.KindAlbums}
	}

	for _, kind := range kinds {
		switch kind {
		case topitems.KindTracks:
			tracks, err := h.top.TopTracks(r.Context(), src, params, userID)
			if err != nil {
				h.writeError(w, err)
				return
			}
			data["tracks"] = tracks
		case topitems.KindArtists:
			artists, err := h.top.TopArtists(r.Context(), src, params, userID)
			if err != nil {
				h.writeError(w, err)
				return
			}
			data["artists"] = artists
		case topitems.KindAlbums:
			albums, err := h.top.TopAlbums(r.Context(), src, params, userID)
			if err != nil {
				h.writeError(w, err)
				return
			}
			data["albums"] = albums
		}
	}

	h.writeJSON(w, http.StatusOK, data)
}

// TopGrid renders the caller's report card as a JPEG (GET /top-grid).
func (h *Handlers) TopGrid(w http.ResponseWriter, r *http.Request) {
	img, _, _, err := h.renderCard(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	if err := canvas.EncodeJPEG(w, img); err != nil {
		h.logger.Error("writing jpeg", slog.String("error", err.Error()))
	}
}

// renderCard runs the full pipeline: gate, aggregate, fetch, compose.
func (h *Handlers) renderCard(r *http.Request) (*image.RGBA, topitems.Params, string, error) {
	params, err := paramsFromRequest(r)
	if err != nil {
		return nil, params, "", err
	}

	src, _, err := h.gate(r)
	if err != nil {
		return nil, params, "", err
	}

	userID, err := src.UserID(r.Context())
	if err != nil {
		return nil, params, "", err
	}

	items, err := h.top.BuildCanvasItems(r.Context(), src, params, userID)
	if err != nil {
		return nil, params, "", err
	}

	covers := h.fetcher.ResolveAll(r.Context(), items)
	return h.composer.Compose(items, covers), params, userID, nil
}

// ============================================================================
// Showcase
// ============================================================================

// PublishShowcase renders the caller's report card and publishes it to the
// public feed (POST /showcase). The publish path is rate limited per
// client IP; everything else is not.
func (h *Handlers) PublishShowcase(w http.ResponseWriter, r *http.Request) {
	if err := h.limiter.Admit(clientIP(r)); err != nil {
		h.writeError(w, err)
		return
	}

	img, params, userID, err := h.renderCard(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := canvas.EncodeJPEG(&buf, img); err != nil {
		h.writeError(w, err)
		return
	}

	filename, err := h.images.Save(buf.Bytes())
	if err != nil {
		h.writeError(w, err)
		return
	}

	item := &showcase.Item{
		CreatorName:      showcase.NewCreatorName(),
		CreatorSpotifyID: userID,
		ImageFilename:    filename,
		TopType:          string(params.Kind),
		AccentColor:      canvas.DominantColor(img),
	}
	if err := h.store.Create(r.Context(), item); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("showcase item published",
		slog.Int64("id", item.ID),
		slog.String("type", item.TopType),
		slog.String("image", item.ImageFilename),
	)

	h.writeJSON(w, http.StatusCreated, item)
}

// ShowcaseFeed lists recent showcase items as JSON (GET /showcase).
func (h *Handlers) ShowcaseFeed(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Recent(r.Context(), showcaseFeedLimit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if items == nil {
		items = []showcase.Item{}
	}
	h.writeJSON(w, http.StatusOK, items)
}

// clientIP returns the rate-limit identity for a request. chi's RealIP
// middleware has already folded X-Forwarded-For into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
