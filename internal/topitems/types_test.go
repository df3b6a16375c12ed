package topitems

import (
	"errors"
	"testing"
)

func TestParseParams(t *testing.T) {
	tests := []struct {
		name      string
		kind      string
		timeRange string
		limit     string
		want      Params
		wantErr   bool
	}{
		{
			name: "all defaults",
			want: Params{Kind: KindTracks, TimeRange: MediumTerm, Limit: 10},
		},
		{
			name:      "explicit values",
			kind:      "artists",
			timeRange: "short_term",
			limit:     "3",
			want:      Params{Kind: KindArtists, TimeRange: ShortTerm, Limit: 3},
		},
		{
			name: "all kind",
			kind: "all",
			want: Params{Kind: KindAll, TimeRange: MediumTerm, Limit: 10},
		},
		{
			name:      "albums long term max limit",
			kind:      "albums",
			timeRange: "long_term",
			limit:     "50",
			want:      Params{Kind: KindAlbums, TimeRange: LongTerm, Limit: 50},
		},
		{
			name:    "bad kind",
			kind:    "playlists",
			wantErr: true,
		},
		{
			name:      "bad time range",
			timeRange: "all_time",
			wantErr:   true,
		},
		{
			name:    "limit zero",
			limit:   "0",
			wantErr: true,
		},
		{
			name:    "limit too large",
			limit:   "51",
			wantErr: true,
		},
		{
			name:    "limit not a number",
			limit:   "ten",
			wantErr: true,
		},
		{
			name:    "limit with trailing garbage",
			limit:   "10abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParams(tt.kind, tt.timeRange, tt.limit)

			if tt.wantErr {
				if err == nil {
					t.Fatal("ParseParams() error = nil, want validation error")
				}
				var validation *ValidationError
				if !errors.As(err, &validation) {
					t.Errorf("ParseParams() error = %T, want *ValidationError", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseParams() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseParams() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
