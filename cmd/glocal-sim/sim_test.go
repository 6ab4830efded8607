package main

import (
	"context"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/glocal/config"
	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/motionplan"
	"go.viam.com/glocal/spatialmath"
)

func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Lidar.VerticalResolution = 6
	cfg.Lidar.HorizontalResolution = 24
	cfg.Lidar.RayLength = 3
	return cfg
}

func TestRunCorridor(t *testing.T) {
	res, err := run(context.Background(), smallConfig(), 6, 150, motionplan.NoopRecorder{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, res.Explored, test.ShouldNotBeEmpty)
	test.That(t, res.Stats.Iterations, test.ShouldEqual, 150)
	test.That(t, res.Stats.WayPoints, test.ShouldEqual, len(res.Explored))

	maxX := 0.0
	for _, wp := range res.Explored {
		test.That(t, wp.Position.X, test.ShouldBeBetween, -corridorHalfWidth, 6.0)
		test.That(t, wp.Position.Y, test.ShouldBeBetween, -corridorHalfWidth, corridorHalfWidth)
		maxX = max(maxX, wp.Position.X)
	}
	test.That(t, maxX, test.ShouldBeGreaterThan, 0.5)

	test.That(t, res.Home, test.ShouldNotBeEmpty)
	last := res.Home[len(res.Home)-1]
	test.That(t, spatialmath.R3VectorAlmostEqual(last.Position, r3.Vector{}, 1e-9), test.ShouldBeTrue)
	test.That(t, res.Search.Iterations, test.ShouldBeGreaterThan, 0)
}

func TestRunDeterministic(t *testing.T) {
	logger := logging.NewTestLogger(t)
	first, err := run(context.Background(), smallConfig(), 4, 60, motionplan.NoopRecorder{}, logger)
	test.That(t, err, test.ShouldBeNil)
	second, err := run(context.Background(), smallConfig(), 4, 60, motionplan.NoopRecorder{}, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second.Explored, test.ShouldResemble, first.Explored)
	test.That(t, second.Home, test.ShouldResemble, first.Home)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := run(context.Background(), smallConfig(), 0, 10, motionplan.NoopRecorder{}, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = run(ctx, smallConfig(), 4, 10, motionplan.NoopRecorder{}, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}
