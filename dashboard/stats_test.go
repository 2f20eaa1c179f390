package dashboard_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/tunecache/dashboard"
)

func tracksWithPlays(plays ...int) []dashboard.Track {
	out := make([]dashboard.Track, len(plays))
	for i, p := range plays {
		out[i] = dashboard.Track{ID: string(rune('a' + i)), Plays: p}
	}
	return out
}

func playsOf(tracks []dashboard.Track) []int {
	out := make([]int, len(tracks))
	for i, t := range tracks {
		out[i] = t.Plays
	}
	return out
}

func revenue(v float64) *float64 { return &v }

func TestTopTracks(t *testing.T) {
	st := dashboard.ComputeStats(tracksWithPlays(5, 1, 9, 3, 7, 2, 4), nil, nil)

	assert.Equal(t, []int{9, 7, 5, 4, 3}, playsOf(st.TopTracks))
	assert.Equal(t, 7, st.TotalTracks)
}

func TestTopTracksTiesKeepInputOrder(t *testing.T) {
	st := dashboard.ComputeStats(tracksWithPlays(2, 5, 2, 5), nil, nil)

	ids := make([]string, len(st.TopTracks))
	for i, tr := range st.TopTracks {
		ids[i] = tr.ID
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids)
}

func TestComputeStatsDoesNotReorderInput(t *testing.T) {
	in := tracksWithPlays(1, 3, 2)
	dashboard.ComputeStats(in, nil, nil)

	assert.Equal(t, []int{1, 3, 2}, playsOf(in))
}

func TestEarningsTreatMissingRevenueAsZero(t *testing.T) {
	earnings := []dashboard.EarningRecord{
		{ID: "e1", Revenue: revenue(10.5)},
		{ID: "e2"},
		{ID: "e3", Revenue: revenue(4.5)},
	}

	st := dashboard.ComputeStats(tracksWithPlays(1, 1, 1), nil, earnings)

	assert.InDelta(t, 15.0, st.TotalEarnings, 1e-9)
	assert.InDelta(t, 5.0, st.AverageEarningsPerTrack, 1e-9)
}

func TestAverageEarningsGuard(t *testing.T) {
	st := dashboard.ComputeStats(nil, nil, []dashboard.EarningRecord{{Revenue: revenue(3)}})

	assert.Equal(t, 0, st.TotalTracks)
	assert.Equal(t, 0.0, st.AverageEarningsPerTrack)
	assert.False(t, math.IsNaN(st.AverageEarningsPerTrack))
}

func TestCountries(t *testing.T) {
	var events []dashboard.AnalyticsEvent
	for _, c := range []string{"US", "DE", "", "US", "FR", "DE", "US", "JP", "BR", "GB", "", "GB"} {
		events = append(events, dashboard.AnalyticsEvent{Country: c})
	}

	st := dashboard.ComputeStats(nil, events, nil)

	assert.Equal(t, 12, st.TotalPlays)
	assert.Equal(t, 6, st.UniqueCountries)
	assert.Equal(t, []dashboard.CountryCount{
		{Country: "US", Plays: 3},
		{Country: "DE", Plays: 2},
		{Country: "GB", Plays: 2},
		{Country: "FR", Plays: 1},
		{Country: "JP", Plays: 1},
	}, st.TopCountries)
}
