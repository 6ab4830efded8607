package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/glocal/motionplan"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewPrometheusRecorder(reg)
	test.That(t, err, test.ShouldBeNil)

	r.TreeUpdated(5, 2, 11)
	r.TreeUpdated(3, 0, 14)
	r.WaypointSelected()
	r.WaypointSelected()

	test.That(t, testutil.ToFloat64(r.pointsAdded), test.ShouldEqual, 8.0)
	test.That(t, testutil.ToFloat64(r.pointsPruned), test.ShouldEqual, 2.0)
	test.That(t, testutil.ToFloat64(r.treeSize), test.ShouldEqual, 14.0)
	test.That(t, testutil.ToFloat64(r.waypoints), test.ShouldEqual, 2.0)

	r.GlobalSearchFinished(40, nil)
	r.GlobalSearchFinished(5000, motionplan.NewSearchExhaustedError("iteration cap of %d reached", 5000))
	r.GlobalSearchFinished(3, errors.Wrap(context.Canceled, "planning"))
	r.GlobalSearchFinished(1, errors.New("boom"))

	test.That(t, testutil.ToFloat64(r.globalSearches.WithLabelValues(ResultSuccess)), test.ShouldEqual, 1.0)
	test.That(t, testutil.ToFloat64(r.globalSearches.WithLabelValues(ResultExhausted)), test.ShouldEqual, 1.0)
	test.That(t, testutil.ToFloat64(r.globalSearches.WithLabelValues(ResultCanceled)), test.ShouldEqual, 1.0)
	test.That(t, testutil.ToFloat64(r.globalSearches.WithLabelValues(ResultError)), test.ShouldEqual, 1.0)

	expected := `
# HELP glocal_local_waypoints_total Waypoints published by the local planner.
# TYPE glocal_local_waypoints_total counter
glocal_local_waypoints_total 2
`
	test.That(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "glocal_local_waypoints_total"), test.ShouldBeNil)
	test.That(t, testutil.CollectAndCount(r.searchIterations), test.ShouldEqual, 1)
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusRecorder(reg)
	test.That(t, err, test.ShouldBeNil)
	_, err = NewPrometheusRecorder(reg)
	test.That(t, err, test.ShouldNotBeNil)
}
