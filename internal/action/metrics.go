package action

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	outcomeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_action_outcomes_total",
		Help: "Finished actions, by action kind and outcome.",
	}, []string{"action", "outcome"})

	stabilizeCapTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transport_stabilize_cap_reached_total",
		Help: "Rest polls that hit the tick cap before the watched objects settled.",
	})

	resetPoseHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transport_reset_pose_cache_total",
		Help: "Container arm resets, by whether a cached pose was replayed.",
	}, []string{"result"})
)
