package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	betsPlaced      prometheus.Counter
	roundsSettled   prometheus.Counter
	poolForfeited   prometheus.Counter
	roundPool       prometheus.Histogram
	gamesReset      prometheus.Counter
	persistFailures *prometheus.CounterVec
}

// NewMetrics registers the game collectors with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		betsPlaced: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wheel",
			Name:      "bets_placed_total",
			Help:      "Bets set or replaced in the open round.",
		}),
		roundsSettled: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wheel",
			Name:      "rounds_settled_total",
			Help:      "Rounds settled against a spin winner.",
		}),
		poolForfeited: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wheel",
			Name:      "pool_forfeited_total",
			Help:      "Stakes lost because nobody backed the winner.",
		}),
		roundPool: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wheel",
			Name:      "round_pool",
			Help:      "Pool size of settled rounds.",
			Buckets:   prometheus.ExponentialBuckets(100, 4, 8),
		}),
		gamesReset: f.NewCounter(prometheus.CounterOpts{
			Namespace: "wheel",
			Name:      "games_reset_total",
			Help:      "Games reset to round one.",
		}),
		persistFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wheel",
			Name:      "persist_failures_total",
			Help:      "Repository writes that failed and were kept in memory only.",
		}, []string{"op"}),
	}
}
