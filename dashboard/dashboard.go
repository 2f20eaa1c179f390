// Package dashboard composes the per-resource caches into the artist
// dashboard: it fans out the resource reads for a user, waits for all of
// them, and reduces whatever came back into a Summary.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/krisalay/tunecache/engine"
	"github.com/krisalay/tunecache/resource"
)

// DefaultWindow is the analytics period the dashboard aggregates.
const DefaultWindow = "30d"

var ErrUnknownResource = errors.New("unknown dashboard resource")

// TTLs overrides the per-resource freshness; zero fields keep the defaults.
type TTLs struct {
	Profile       time.Duration
	Tracks        time.Duration
	Analytics     time.Duration
	Earnings      time.Duration
	Notifications time.Duration
}

type Options struct {
	TTLs            TTLs
	AnalyticsWindow string
	Logger          *slog.Logger
}

type Service struct {
	fetcher Fetcher
	window  string
	logger  *slog.Logger

	profile       *resource.Resource[*Profile]
	tracks        *resource.Resource[[]Track]
	analytics     *resource.Resource[[]AnalyticsEvent]
	earnings      *resource.Resource[[]EarningRecord]
	notifications *resource.Resource[[]Notification]
}

func NewService(e *engine.CacheEngine, fetcher Fetcher, opts Options) *Service {
	if opts.AnalyticsWindow == "" {
		opts.AnalyticsWindow = DefaultWindow
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		fetcher:       fetcher,
		window:        opts.AnalyticsWindow,
		logger:        opts.Logger,
		profile:       resource.New[*Profile](e, resource.Profile, orDefault(opts.TTLs.Profile, resource.ProfileTTL)),
		tracks:        resource.New[[]Track](e, resource.Tracks, orDefault(opts.TTLs.Tracks, resource.TracksTTL)),
		analytics:     resource.New[[]AnalyticsEvent](e, resource.Analytics, orDefault(opts.TTLs.Analytics, resource.AnalyticsTTL)),
		earnings:      resource.New[[]EarningRecord](e, resource.Earnings, orDefault(opts.TTLs.Earnings, resource.EarningsTTL)),
		notifications: resource.New[[]Notification](e, resource.Notifications, orDefault(opts.TTLs.Notifications, resource.NotificationsTTL)),
	}
}

/*
Load builds the dashboard Summary for userID.

BEHAVIOR:
---------
  - Empty userID: nothing is fetched and the Summary stays in StateLoading
    until an identity is known.
  - Otherwise profile, tracks, analytics and earnings are read concurrently
    through their caches. Load waits for all four; a failed resource only
    zeroes its own contribution and is reported in Statuses.
  - State is StateSuccess when every resource loaded, StatePartial otherwise.

The returned error is non-nil only when ctx ended before the reads settled.
*/
func (s *Service) Load(ctx context.Context, userID string) (*Summary, error) {
	sum := &Summary{
		UserID:   userID,
		State:    StateLoading,
		Statuses: make(map[Kind]ResourceStatus, len(Kinds)),
	}
	if userID == "" {
		return sum, nil
	}
	sum.RunID = uuid.NewString()

	var (
		profile   resource.Result[*Profile]
		tracks    resource.Result[[]Track]
		analytics resource.Result[[]AnalyticsEvent]
		earnings  resource.Result[[]EarningRecord]

		profileErr, tracksErr, analyticsErr, earningsErr error
	)

	// A plain Group, not WithContext: a failed read is reported through its
	// own variables and never cancels the others.
	var g errgroup.Group
	g.Go(func() error {
		profile, profileErr = s.profile.Get(ctx, userID, func(ctx context.Context) (*Profile, error) {
			return s.fetcher.FetchProfile(ctx, userID)
		})
		return profileErr
	})
	g.Go(func() error {
		tracks, tracksErr = s.tracks.Get(ctx, userID, func(ctx context.Context) ([]Track, error) {
			return s.fetcher.FetchTracks(ctx, userID)
		})
		return tracksErr
	})
	g.Go(func() error {
		analytics, analyticsErr = s.analytics.GetWindow(ctx, userID, s.window, func(ctx context.Context) ([]AnalyticsEvent, error) {
			return s.fetcher.FetchAnalytics(ctx, userID, s.window)
		})
		return analyticsErr
	})
	g.Go(func() error {
		earnings, earningsErr = s.earnings.Get(ctx, userID, func(ctx context.Context) ([]EarningRecord, error) {
			return s.fetcher.FetchEarnings(ctx, userID)
		})
		return earningsErr
	})
	waitErr := g.Wait()

	if err := ctx.Err(); err != nil {
		return sum, err
	}
	if waitErr != nil {
		s.logger.Debug("dashboard read failed", "run", sum.RunID, "user", userID, "err", waitErr)
	}

	sum.Profile = profile.Data
	sum.Tracks = tracks.Data
	sum.Analytics = analytics.Data
	sum.Earnings = earnings.Data

	sum.record(KindProfile, profile.FromCache, profileErr)
	sum.record(KindTracks, tracks.FromCache, tracksErr)
	sum.record(KindAnalytics, analytics.FromCache, analyticsErr)
	sum.record(KindEarnings, earnings.FromCache, earningsErr)

	sum.Stats = ComputeStats(sum.Tracks, sum.Analytics, sum.Earnings)

	sum.State = StateSuccess
	for _, k := range Kinds {
		if sum.Statuses[k].Status == StatusError {
			sum.State = StatePartial
			if sum.Error == "" {
				sum.Error = sum.Statuses[k].Error
			}
		}
	}

	s.logger.Info("dashboard loaded",
		"run", sum.RunID,
		"user", userID,
		"state", sum.State,
		"tracks", sum.Stats.TotalTracks,
		"plays", sum.Stats.TotalPlays,
	)
	return sum, nil
}

// Refresh drops the user's four dashboard resources and loads them again,
// so every resource comes from the remote.
func (s *Service) Refresh(ctx context.Context, userID string) (*Summary, error) {
	if err := s.InvalidateCache(userID, KindAll); err != nil {
		return nil, err
	}
	return s.Load(ctx, userID)
}

// InvalidateCache drops one resource of the user, or all four for KindAll.
func (s *Service) InvalidateCache(userID string, kind Kind) error {
	if userID == "" {
		return nil
	}

	switch kind {
	case KindProfile:
		s.profile.Invalidate(userID)
	case KindTracks:
		s.tracks.Invalidate(userID)
	case KindAnalytics:
		s.analytics.Invalidate(userID)
	case KindEarnings:
		s.earnings.Invalidate(userID)
	case KindAll:
		s.profile.Invalidate(userID)
		s.tracks.Invalidate(userID)
		s.analytics.Invalidate(userID)
		s.earnings.Invalidate(userID)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownResource, kind)
	}

	s.logger.Debug("dashboard cache invalidated", "user", userID, "resource", kind)
	return nil
}

// Notifications reads the user's notification list through its short-lived cache.
func (s *Service) Notifications(ctx context.Context, userID string) (resource.Result[[]Notification], error) {
	return s.notifications.Get(ctx, userID, func(ctx context.Context) ([]Notification, error) {
		return s.fetcher.FetchNotifications(ctx, userID)
	})
}

// InvalidateNotifications forces the next Notifications call to refetch,
// for example after the user marked items as read.
func (s *Service) InvalidateNotifications(userID string) {
	s.notifications.Invalidate(userID)
}

func (sum *Summary) record(kind Kind, fromCache bool, err error) {
	if err != nil {
		sum.Statuses[kind] = ResourceStatus{Status: StatusError, Error: err.Error(), Err: err}
		return
	}
	sum.Statuses[kind] = ResourceStatus{Status: StatusOK, FromCache: fromCache}
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
