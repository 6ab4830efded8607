package mapping

import (
	"math"
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/glocal/logging"
)

// VoxelMap is a thread-safe in-memory voxel map. Observed voxels are stored sparsely, every voxel
// absent from the store is unknown. Each query holds the read lock for its whole duration so line
// checks see a single map state.
type VoxelMap struct {
	cfg    VoxelMapConfig
	logger logging.Logger

	mu      sync.RWMutex
	voxels  map[VoxelIndex]VoxelState
	robot   r3.Vector
	submaps map[SubmapID]FinalizedSubmap
	ids     []SubmapID

	listenersMu sync.Mutex
	listeners   []SubmapListener
}

// NewVoxelMap returns an empty map.
func NewVoxelMap(cfg VoxelMapConfig, logger logging.Logger) (*VoxelMap, error) {
	if err := cfg.Validate("map"); err != nil {
		return nil, err
	}
	return &VoxelMap{
		cfg:     cfg,
		logger:  logger,
		voxels:  map[VoxelIndex]VoxelState{},
		submaps: map[SubmapID]FinalizedSubmap{},
	}, nil
}

// VoxelSize returns the edge length of a voxel.
func (vm *VoxelMap) VoxelSize() float64 {
	return vm.cfg.VoxelSize
}

// VoxelIndexOf returns the index of the voxel containing p.
func (vm *VoxelMap) VoxelIndexOf(p r3.Vector) VoxelIndex {
	v := vm.cfg.VoxelSize
	return VoxelIndex{
		I: int64(math.Round(p.X / v)),
		J: int64(math.Round(p.Y / v)),
		K: int64(math.Round(p.Z / v)),
	}
}

// VoxelCenter returns the center of a voxel.
func (vm *VoxelMap) VoxelCenter(idx VoxelIndex) r3.Vector {
	v := vm.cfg.VoxelSize
	return r3.Vector{X: float64(idx.I) * v, Y: float64(idx.J) * v, Z: float64(idx.K) * v}
}

// VoxelState returns the state of the voxel containing p.
func (vm *VoxelMap) VoxelState(p r3.Vector) VoxelState {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.voxels[vm.VoxelIndexOf(p)]
}

// SetVoxelState sets the state of the voxel containing p.
func (vm *VoxelMap) SetVoxelState(p r3.Vector, state VoxelState) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.setLocked(vm.VoxelIndexOf(p), state)
}

// FillBox sets every voxel whose center lies inside box to state.
func (vm *VoxelMap) FillBox(box Box, state VoxelState) {
	lo, hi := vm.VoxelIndexOf(box.Min), vm.VoxelIndexOf(box.Max)
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := lo.I; i <= hi.I; i++ {
		for j := lo.J; j <= hi.J; j++ {
			for k := lo.K; k <= hi.K; k++ {
				idx := VoxelIndex{i, j, k}
				if box.Contains(vm.VoxelCenter(idx)) {
					vm.setLocked(idx, state)
				}
			}
		}
	}
}

func (vm *VoxelMap) setLocked(idx VoxelIndex, state VoxelState) {
	if state == VoxelUnknown {
		delete(vm.voxels, idx)
		return
	}
	vm.voxels[idx] = state
}

// SetRobotPosition updates the robot position used by the clearing radius.
func (vm *VoxelMap) SetRobotPosition(p r3.Vector) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	vm.robot = p
}

// IsTraversableInActiveSubmap implements Map.
func (vm *VoxelMap) IsTraversableInActiveSubmap(p r3.Vector) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.activeTraversableLocked(p)
}

// IsPoseTraversableInActiveSubmap implements Map. The robot body is a sphere so the orientation
// does not change the answer.
func (vm *VoxelMap) IsPoseTraversableInActiveSubmap(p r3.Vector, orientation quat.Number) bool {
	return vm.IsTraversableInActiveSubmap(p)
}

// IsLineTraversableInActiveSubmap implements Map.
func (vm *VoxelMap) IsLineTraversableInActiveSubmap(a, b r3.Vector) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.lineTraversableLocked(a, b, vm.activeTraversableLocked)
}

// IsTraversableInGlobalMap implements Map.
func (vm *VoxelMap) IsTraversableInGlobalMap(p r3.Vector) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.globalTraversableLocked(p)
}

// IsLineTraversableInGlobalMap implements Map.
func (vm *VoxelMap) IsLineTraversableInGlobalMap(a, b r3.Vector) bool {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.lineTraversableLocked(a, b, vm.globalTraversableLocked)
}

// SubmapIDsAtPosition returns the ids of finalized submaps whose region contains p, in increasing order.
func (vm *VoxelMap) SubmapIDsAtPosition(p r3.Vector) []SubmapID {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.submapsAtLocked(p)
}

// DistanceAtPosition implements Map. Distances are truncated at the configured max distance.
func (vm *VoxelMap) DistanceAtPosition(p r3.Vector) (float64, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.voxels[vm.VoxelIndexOf(p)] == VoxelUnknown {
		return 0, false
	}
	return vm.obstacleDistanceLocked(p, vm.cfg.MaxDistance), true
}

// Subscribe registers a listener for finalized submaps.
func (vm *VoxelMap) Subscribe(listener SubmapListener) {
	vm.listenersMu.Lock()
	defer vm.listenersMu.Unlock()
	vm.listeners = append(vm.listeners, listener)
}

// FinalizeSubmap freezes a region of the map and notifies all listeners. Listener errors are
// combined and returned, the submap stays finalized regardless.
func (vm *VoxelMap) FinalizeSubmap(submap FinalizedSubmap) error {
	if submap.Region.IsEmpty() {
		return errors.Errorf("submap %d has an empty region %v", submap.ID, submap.Region)
	}
	vm.mu.Lock()
	if _, ok := vm.submaps[submap.ID]; ok {
		vm.mu.Unlock()
		return errors.Errorf("submap %d is already finalized", submap.ID)
	}
	vm.submaps[submap.ID] = submap
	vm.ids = append(vm.ids, submap.ID)
	sort.Slice(vm.ids, func(i, j int) bool { return vm.ids[i] < vm.ids[j] })
	vm.mu.Unlock()

	vm.logger.Debugw("submap finalized", "id", submap.ID, "region", submap.Region.String())

	vm.listenersMu.Lock()
	listeners := append([]SubmapListener(nil), vm.listeners...)
	vm.listenersMu.Unlock()

	var err error
	for _, l := range listeners {
		err = multierr.Append(err, l.SubmapFinalized(submap))
	}
	return err
}

func (vm *VoxelMap) inBounds(p r3.Vector) bool {
	return vm.cfg.Bounds == nil || vm.cfg.Bounds.Contains(p)
}

func (vm *VoxelMap) activeTraversableLocked(p r3.Vector) bool {
	if !vm.inBounds(p) {
		return false
	}
	if vm.voxels[vm.VoxelIndexOf(p)] != VoxelUnknown {
		return vm.obstacleDistanceLocked(p, vm.cfg.TraversabilityRadius+vm.cfg.VoxelSize) > vm.cfg.TraversabilityRadius
	}
	return p.Distance(vm.robot) < vm.cfg.ClearingRadius
}

// globalTraversableLocked never treats unobserved space as free and ignores the clearing radius.
func (vm *VoxelMap) globalTraversableLocked(p r3.Vector) bool {
	if !vm.inBounds(p) || len(vm.submapsAtLocked(p)) == 0 {
		return false
	}
	if vm.voxels[vm.VoxelIndexOf(p)] == VoxelUnknown {
		return false
	}
	return vm.obstacleDistanceLocked(p, vm.cfg.TraversabilityRadius+vm.cfg.VoxelSize) > vm.cfg.TraversabilityRadius
}

// lineTraversableLocked samples the segment at voxel resolution, the start point is not checked.
func (vm *VoxelMap) lineTraversableLocked(a, b r3.Vector, traversable func(r3.Vector) bool) bool {
	n := int(math.Floor(a.Distance(b)/vm.cfg.VoxelSize)) + 1
	increment := b.Sub(a).Mul(1 / float64(n))
	for i := 1; i <= n; i++ {
		if !traversable(a.Add(increment.Mul(float64(i)))) {
			return false
		}
	}
	return true
}

func (vm *VoxelMap) submapsAtLocked(p r3.Vector) []SubmapID {
	var out []SubmapID
	for _, id := range vm.ids {
		if vm.submaps[id].Region.Contains(p) {
			out = append(out, id)
		}
	}
	return out
}

// obstacleDistanceLocked returns the distance from p to the closest occupied voxel center, or
// limit if there is none closer.
func (vm *VoxelMap) obstacleDistanceLocked(p r3.Vector, limit float64) float64 {
	center := vm.VoxelIndexOf(p)
	r := int64(math.Ceil(limit / vm.cfg.VoxelSize))
	best := limit
	for i := center.I - r; i <= center.I+r; i++ {
		for j := center.J - r; j <= center.J+r; j++ {
			for k := center.K - r; k <= center.K+r; k++ {
				idx := VoxelIndex{i, j, k}
				if vm.voxels[idx] != VoxelOccupied {
					continue
				}
				if d := vm.VoxelCenter(idx).Distance(p); d < best {
					best = d
				}
			}
		}
	}
	return best
}
