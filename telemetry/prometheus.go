// Package telemetry exports planner statistics as prometheus metrics.
package telemetry

import (
	"context"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"go.viam.com/glocal/motionplan"
)

const namespace = "glocal"

// Search results used as the result label of the global search counter.
const (
	ResultSuccess   = "success"
	ResultExhausted = "exhausted"
	ResultCanceled  = "canceled"
	ResultError     = "error"
)

var _ motionplan.Recorder = (*PrometheusRecorder)(nil)

// PrometheusRecorder is a motionplan.Recorder backed by prometheus collectors.
type PrometheusRecorder struct {
	pointsAdded      prometheus.Counter
	pointsPruned     prometheus.Counter
	treeSize         prometheus.Gauge
	waypoints        prometheus.Counter
	globalSearches   *prometheus.CounterVec
	searchIterations prometheus.Histogram
}

// NewPrometheusRecorder creates the planner metrics and registers them with reg.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		pointsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "local", Name: "points_added_total",
			Help: "Viewpoints added to the local tree.",
		}),
		pointsPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "local", Name: "points_pruned_total",
			Help: "Viewpoints removed from the local tree after collisions.",
		}),
		treeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "local", Name: "tree_size",
			Help: "Viewpoints in the local tree at the last published segment.",
		}),
		waypoints: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "local", Name: "waypoints_total",
			Help: "Waypoints published by the local planner.",
		}),
		globalSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "global", Name: "searches_total",
			Help: "Global searches by result.",
		}, []string{"result"}),
		searchIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "global", Name: "search_iterations",
			Help:    "Open set pops per global search.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	var err error
	for _, c := range []prometheus.Collector{
		r.pointsAdded, r.pointsPruned, r.treeSize, r.waypoints, r.globalSearches, r.searchIterations,
	} {
		err = multierr.Append(err, reg.Register(c))
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// TreeUpdated implements motionplan.Recorder.
func (r *PrometheusRecorder) TreeUpdated(added, pruned, total int) {
	r.pointsAdded.Add(float64(added))
	r.pointsPruned.Add(float64(pruned))
	r.treeSize.Set(float64(total))
}

// WaypointSelected implements motionplan.Recorder.
func (r *PrometheusRecorder) WaypointSelected() {
	r.waypoints.Inc()
}

// GlobalSearchFinished implements motionplan.Recorder.
func (r *PrometheusRecorder) GlobalSearchFinished(iterations int, err error) {
	r.globalSearches.WithLabelValues(searchResult(err)).Inc()
	r.searchIterations.Observe(float64(iterations))
}

func searchResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, motionplan.ErrSearchExhausted):
		return ResultExhausted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	default:
		return ResultError
	}
}
