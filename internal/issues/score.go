// Package issues implements the group lifecycle: save-time normalization,
// effective status computation, sort score, redirect-aware lookup, and the
// share token index.
package issues

import (
	"math"
	"time"
)

// Score computes the sort weight for a group. Volume contributes
// logarithmically so recency dominates between groups of similar size.
func Score(timesSeen int64, lastSeen time.Time) int64 {
	if timesSeen < 1 {
		timesSeen = 1
	}
	return int64(math.Log(float64(timesSeen))*600) + lastSeen.Unix()
}
