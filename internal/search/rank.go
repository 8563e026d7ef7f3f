package search

import (
	"sort"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/lnicolet/cadence/internal/track"
)

// rankTracks orders a provider buffer by similarity to the query,
// best match first. The sort is stable so providers returning
// relevance-ordered results keep their tie ordering.
func rankTracks(query string, tracks []track.Track) []track.Track {
	if len(tracks) < 2 {
		return tracks
	}

	q := strings.ToLower(query)
	jw := metrics.NewJaroWinkler()
	scores := make([]float64, len(tracks))
	for i, t := range tracks {
		cand := strings.ToLower(t.Artist + " " + t.Title)
		scores[i] = strutil.Similarity(q, cand, jw)
	}

	idx := make([]int, len(tracks))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})

	out := make([]track.Track, len(tracks))
	for i, j := range idx {
		out[i] = tracks[j]
	}
	return out
}
