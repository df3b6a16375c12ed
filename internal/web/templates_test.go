package web

import (
	"bytes"
	"io/fs"
	"strings"
	"testing"
	"time"

	webfs "github.com/metalstats/metalstats/web"

	"github.com/metalstats/metalstats/internal/showcase"
)

func loadTemplates(t *testing.T) *Templates {
	t.Helper()
	templatesFS, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		t.Fatalf("creating templates filesystem: %v", err)
	}
	templates, err := NewTemplates(templatesFS)
	if err != nil {
		t.Fatalf("NewTemplates() error = %v", err)
	}
	return templates
}

func TestRenderPages(t *testing.T) {
	templates := loadTemplates(t)

	tests := []struct {
		page string
		data any
		want string
	}{
		{
			page: "home",
			data: HomePageData{
				PageData:      PageData{Title: "metalstats", CurrentPath: "/"},
				Authenticated: false,
			},
			want: "Login with Spotify",
		},
		{
			page: "home",
			data: HomePageData{
				PageData: PageData{
					Title:       "metalstats",
					CurrentPath: "/",
					User:        &UserData{ID: "user1", Name: "User One"},
				},
				Authenticated: true,
			},
			want: "Make my report card",
		},
		{
			page: "about",
			data: PageData{Title: "About", CurrentPath: "/about"},
			want: "user-top-read",
		},
		{
			page: "showcase",
			data: ShowcasePageData{
				PageData: PageData{Title: "Showcase", CurrentPath: "/po-tos"},
				Items: []showcase.Item{
					{
						CreatorName:   "Anon#123456",
						ImageFilename: "abc.jpg",
						TopType:       "tracks",
						AccentColor:   "#203040",
						CreatedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
					},
				},
			},
			want: "Anon#123456",
		},
		{
			page: "showcase",
			data: ShowcasePageData{
				PageData: PageData{Title: "Showcase", CurrentPath: "/po-tos"},
			},
			want: "Nothing here yet",
		},
	}

	for _, tt := range tests {
		t.Run(tt.page+"/"+tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			if err := templates.Render(&buf, tt.page, tt.data); err != nil {
				t.Fatalf("Render(%q) error = %v", tt.page, err)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("Render(%q) output does not contain %q", tt.page, tt.want)
			}
		})
	}
}

func TestRenderUnknownPage(t *testing.T) {
	templates := loadTemplates(t)

	var buf bytes.Buffer
	if err := templates.Render(&buf, "missing", nil); err == nil {
		t.Error("Render() with unknown page should fail")
	}
}
