package dashboard

import (
	"context"
	"time"
)

type Profile struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	ArtistName  string    `json:"artist_name,omitempty"`
	Email       string    `json:"email,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	IsAdmin     bool      `json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
}

type Track struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Title      string    `json:"title"`
	Genre      string    `json:"genre,omitempty"`
	Plays      int       `json:"plays"`
	ReleasedAt time.Time `json:"released_at"`
}

// AnalyticsEvent is one play of a track.
type AnalyticsEvent struct {
	ID       string    `json:"id"`
	TrackID  string    `json:"track_id"`
	UserID   string    `json:"user_id"`
	Country  string    `json:"country,omitempty"`
	PlayedAt time.Time `json:"played_at"`
}

type EarningRecord struct {
	ID      string `json:"id"`
	TrackID string `json:"track_id"`
	// Revenue is nil when the backend has not settled the record yet.
	Revenue   *float64  `json:"revenue"`
	Period    string    `json:"period,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// Fetcher is the remote data provider. Implementations return
// types.ErrNoData when a lookup succeeds but finds nothing.
type Fetcher interface {
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
	FetchTracks(ctx context.Context, userID string) ([]Track, error)
	FetchAnalytics(ctx context.Context, userID, period string) ([]AnalyticsEvent, error)
	FetchEarnings(ctx context.Context, userID string) ([]EarningRecord, error)
	FetchNotifications(ctx context.Context, userID string) ([]Notification, error)
}

// Kind selects a dashboard resource for invalidation and status reporting.
type Kind string

const (
	KindProfile   Kind = "profile"
	KindTracks    Kind = "tracks"
	KindAnalytics Kind = "analytics"
	KindEarnings  Kind = "earnings"
	KindAll       Kind = "all"
)

// Kinds lists the aggregated resources in reporting order.
var Kinds = []Kind{KindProfile, KindTracks, KindAnalytics, KindEarnings}

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateSuccess State = "success"
	StatePartial State = "partial"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// ResourceStatus tells a caller whether a zero in Stats means "nothing there"
// or "failed to load".
type ResourceStatus struct {
	Status    Status `json:"status"`
	FromCache bool   `json:"from_cache"`
	Error     string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

type CountryCount struct {
	Country string `json:"country"`
	Plays   int    `json:"plays"`
}

type Stats struct {
	TotalTracks             int            `json:"total_tracks"`
	TotalPlays              int            `json:"total_plays"`
	TotalEarnings           float64        `json:"total_earnings"`
	UniqueCountries         int            `json:"unique_countries"`
	TopTracks               []Track        `json:"top_tracks"`
	TopCountries            []CountryCount `json:"top_countries"`
	AverageEarningsPerTrack float64        `json:"average_earnings_per_track"`
}

// Summary is the dashboard view model of one aggregation run.
type Summary struct {
	RunID     string                  `json:"run_id,omitempty"`
	UserID    string                  `json:"user_id"`
	State     State                   `json:"state"`
	Profile   *Profile                `json:"profile,omitempty"`
	Tracks    []Track                 `json:"tracks"`
	Analytics []AnalyticsEvent        `json:"analytics"`
	Earnings  []EarningRecord         `json:"earnings"`
	Stats     Stats                   `json:"stats"`
	Statuses  map[Kind]ResourceStatus `json:"statuses"`

	// Error is the first failure in Kinds order, empty when everything loaded.
	Error string `json:"error,omitempty"`
}
