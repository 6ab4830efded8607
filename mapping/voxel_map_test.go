package mapping

import (
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/glocal/logging"
	"go.viam.com/glocal/mapping/skeleton"
	"go.viam.com/glocal/spatialmath"
)

type recordingListener struct {
	got []SubmapID
	err error
}

func (l *recordingListener) SubmapFinalized(s FinalizedSubmap) error {
	l.got = append(l.got, s.ID)
	return l.err
}

// corridorMap is free space from x=-1 to x=5 with a wall at x=3.
func corridorMap(t *testing.T) *VoxelMap {
	t.Helper()
	cfg := DefaultVoxelMapConfig()
	cfg.Bounds = &Box{Min: r3.Vector{X: -2, Y: -2, Z: -2}, Max: r3.Vector{X: 10, Y: 2, Z: 2}}
	vm, err := NewVoxelMap(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	vm.FillBox(NewBox(r3.Vector{X: -1, Y: -1, Z: -1}, r3.Vector{X: 5, Y: 1, Z: 1}), VoxelFree)
	vm.FillBox(NewBox(r3.Vector{X: 2.9, Y: -1, Z: -1}, r3.Vector{X: 3.1, Y: 1, Z: 1}), VoxelOccupied)
	return vm
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultVoxelMapConfig()
	test.That(t, cfg.Validate("map"), test.ShouldBeNil)

	cfg.VoxelSize = 0
	cfg.TraversabilityRadius = -1
	cfg.Bounds = &Box{Min: r3.Vector{X: 1}, Max: r3.Vector{X: -1}}
	err := cfg.Validate("map")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "voxel_size")
	test.That(t, err.Error(), test.ShouldContainSubstring, "traversability_radius")
	test.That(t, err.Error(), test.ShouldContainSubstring, "bounds")

	_, err = NewVoxelMap(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestVoxelState(t *testing.T) {
	vm := corridorMap(t)
	test.That(t, vm.VoxelState(r3.Vector{}), test.ShouldEqual, VoxelFree)
	test.That(t, vm.VoxelState(r3.Vector{X: 3}), test.ShouldEqual, VoxelOccupied)
	test.That(t, vm.VoxelState(r3.Vector{Y: 3}), test.ShouldEqual, VoxelUnknown)

	idx := vm.VoxelIndexOf(r3.Vector{X: 0.41, Y: -0.39})
	test.That(t, idx, test.ShouldResemble, VoxelIndex{I: 2, J: -2, K: 0})
	test.That(t, spatialmath.R3VectorAlmostEqual(vm.VoxelCenter(idx), r3.Vector{X: 0.4, Y: -0.4}, 1e-9), test.ShouldBeTrue)

	vm.SetVoxelState(r3.Vector{}, VoxelUnknown)
	test.That(t, vm.VoxelState(r3.Vector{}), test.ShouldEqual, VoxelUnknown)
}

func TestActiveTraversability(t *testing.T) {
	vm := corridorMap(t)

	test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{}), test.ShouldBeTrue)
	test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{X: 2}), test.ShouldBeTrue)
	test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{X: 2.8}), test.ShouldBeFalse)
	test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{X: 3}), test.ShouldBeFalse)
	test.That(t, vm.IsPoseTraversableInActiveSubmap(r3.Vector{X: 2}, spatialmath.YawToQuat(1)), test.ShouldBeTrue)

	t.Run("unknown space uses the clearing radius", func(t *testing.T) {
		p := r3.Vector{Y: 1.4}
		test.That(t, vm.IsTraversableInActiveSubmap(p), test.ShouldBeFalse)
		vm.SetRobotPosition(r3.Vector{Y: 1.2})
		test.That(t, vm.IsTraversableInActiveSubmap(p), test.ShouldBeTrue)
		vm.SetRobotPosition(r3.Vector{})
	})

	t.Run("outside bounds", func(t *testing.T) {
		vm.SetRobotPosition(r3.Vector{X: 11})
		test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{X: 11}), test.ShouldBeFalse)
		vm.SetRobotPosition(r3.Vector{})
	})

	t.Run("lines", func(t *testing.T) {
		test.That(t, vm.IsLineTraversableInActiveSubmap(r3.Vector{}, r3.Vector{X: 2}), test.ShouldBeTrue)
		test.That(t, vm.IsLineTraversableInActiveSubmap(r3.Vector{}, r3.Vector{X: 4}), test.ShouldBeFalse)
		// the start point is not checked
		test.That(t, vm.IsLineTraversableInActiveSubmap(r3.Vector{X: 2.8}, r3.Vector{X: 2}), test.ShouldBeTrue)
	})

	dist, observed := vm.DistanceAtPosition(r3.Vector{X: 2})
	test.That(t, observed, test.ShouldBeTrue)
	test.That(t, dist, test.ShouldAlmostEqual, 1.0, 1e-9)
	dist, observed = vm.DistanceAtPosition(r3.Vector{X: -0.6})
	test.That(t, observed, test.ShouldBeTrue)
	test.That(t, dist, test.ShouldAlmostEqual, 2.0)
	_, observed = vm.DistanceAtPosition(r3.Vector{Y: 3})
	test.That(t, observed, test.ShouldBeFalse)
}

func TestGlobalTraversability(t *testing.T) {
	vm := corridorMap(t)
	listener := &recordingListener{}
	vm.Subscribe(listener)

	test.That(t, vm.IsTraversableInGlobalMap(r3.Vector{}), test.ShouldBeFalse)
	test.That(t, vm.SubmapIDsAtPosition(r3.Vector{}), test.ShouldBeEmpty)

	sk, err := skeleton.NewLatticeGraph(r3.Vector{}, r3.Vector{X: 2}, 1, nil)
	test.That(t, err, test.ShouldBeNil)
	region := NewBox(r3.Vector{X: -1.5, Y: -1.5, Z: -1.5}, r3.Vector{X: 2.5, Y: 1.5, Z: 1.5})
	test.That(t, vm.FinalizeSubmap(FinalizedSubmap{ID: 4, Region: region, Skeleton: sk}), test.ShouldBeNil)
	test.That(t, vm.FinalizeSubmap(FinalizedSubmap{ID: 2, Region: region.Expand(1), Skeleton: sk}), test.ShouldBeNil)
	test.That(t, listener.got, test.ShouldResemble, []SubmapID{4, 2})

	test.That(t, vm.SubmapIDsAtPosition(r3.Vector{}), test.ShouldResemble, []SubmapID{2, 4})
	test.That(t, vm.SubmapIDsAtPosition(r3.Vector{X: 3.2}), test.ShouldResemble, []SubmapID{2})
	test.That(t, vm.IsTraversableInGlobalMap(r3.Vector{}), test.ShouldBeTrue)
	test.That(t, vm.IsLineTraversableInGlobalMap(r3.Vector{}, r3.Vector{X: 2}), test.ShouldBeTrue)
	test.That(t, vm.IsLineTraversableInGlobalMap(r3.Vector{}, r3.Vector{X: 4}), test.ShouldBeFalse)

	// the clearing radius does not apply to the global map
	vm.SetRobotPosition(r3.Vector{Y: 1.2})
	test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{Y: 1.4}), test.ShouldBeTrue)
	test.That(t, vm.IsTraversableInGlobalMap(r3.Vector{Y: 1.4}), test.ShouldBeFalse)

	t.Run("duplicate and failing listeners", func(t *testing.T) {
		test.That(t, vm.FinalizeSubmap(FinalizedSubmap{ID: 4, Region: region}), test.ShouldNotBeNil)
		test.That(t, vm.FinalizeSubmap(FinalizedSubmap{ID: 9, Region: Box{Min: r3.Vector{X: 1}, Max: r3.Vector{X: -1}}}), test.ShouldNotBeNil)

		failing := &recordingListener{err: errors.New("planner rejected submap")}
		vm.Subscribe(failing)
		err := vm.FinalizeSubmap(FinalizedSubmap{ID: 7, Region: region})
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "planner rejected submap")
		test.That(t, failing.got, test.ShouldResemble, []SubmapID{7})
		test.That(t, vm.SubmapIDsAtPosition(r3.Vector{}), test.ShouldResemble, []SubmapID{2, 4, 7})
	})
}

func TestConcurrentAccess(t *testing.T) {
	vm := corridorMap(t)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				vm.SetVoxelState(r3.Vector{X: 4, Y: float64(w) * 0.2}, VoxelState(i%3))
				vm.SetRobotPosition(r3.Vector{X: float64(i) * 0.01})
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				vm.IsLineTraversableInActiveSubmap(r3.Vector{}, r3.Vector{X: 4.5})
				vm.DistanceAtPosition(r3.Vector{X: 3.8})
			}
		}()
	}
	wg.Wait()
	test.That(t, vm.IsTraversableInActiveSubmap(r3.Vector{}), test.ShouldBeTrue)
}
