package dashboard

import "sort"

// TopN is how many tracks and countries the dashboard ranks.
const TopN = 5

// ComputeStats reduces the fetched resources into the dashboard figures.
// It depends only on its inputs, so the order in which fetches settled
// cannot change the result.
func ComputeStats(tracks []Track, events []AnalyticsEvent, earnings []EarningRecord) Stats {
	st := Stats{
		TotalTracks:   len(tracks),
		TotalPlays:    len(events),
		TotalEarnings: totalRevenue(earnings),
		TopTracks:     topTracks(tracks, TopN),
	}

	st.TopCountries, st.UniqueCountries = topCountries(events, TopN)

	if st.TotalTracks > 0 {
		st.AverageEarningsPerTrack = st.TotalEarnings / float64(st.TotalTracks)
	}
	return st
}

func totalRevenue(earnings []EarningRecord) float64 {
	var sum float64
	for _, e := range earnings {
		if e.Revenue != nil {
			sum += *e.Revenue
		}
	}
	return sum
}

// topTracks ranks by plays, descending; equal plays keep their input order.
func topTracks(tracks []Track, n int) []Track {
	ranked := make([]Track, len(tracks))
	copy(ranked, tracks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Plays > ranked[j].Plays
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// topCountries ranks non-empty countries by play count, descending; ties
// keep the order in which the country was first seen. It also returns the
// number of distinct countries.
func topCountries(events []AnalyticsEvent, n int) ([]CountryCount, int) {
	index := make(map[string]int)
	var counts []CountryCount
	for _, ev := range events {
		if ev.Country == "" {
			continue
		}
		i, ok := index[ev.Country]
		if !ok {
			i = len(counts)
			index[ev.Country] = i
			counts = append(counts, CountryCount{Country: ev.Country})
		}
		counts[i].Plays++
	}

	distinct := len(counts)
	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Plays > counts[j].Plays
	})
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts, distinct
}
