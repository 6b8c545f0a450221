package sim

import (
	"fmt"
)

// ResourcePool owns the finite simulated resources of a run.
// Capacities are fixed at construction. For every kind the sum of
// allocations never exceeds capacity.
type ResourcePool struct {
	capacity map[ResourceKind]int64
	used     map[ResourceKind]int64
	held     map[ProcessID]map[ResourceKind]int64 // process -> kind -> quantity
}

// NewResourcePool creates a pool with the given capacities. The map is copied.
func NewResourcePool(capacities map[ResourceKind]int64) *ResourcePool {
	return &ResourcePool{
		capacity: copyQuantities(capacities),
		used:     make(map[ResourceKind]int64, len(capacities)),
		held:     make(map[ProcessID]map[ResourceKind]int64),
	}
}

// Allocate grants quantity units of kind to pid if they fit. Denial is not an error.
func (rp *ResourcePool) Allocate(pid ProcessID, kind ResourceKind, quantity int64) bool {
	return rp.AllocateAll(pid, map[ResourceKind]int64{kind: quantity})
}

// AllocateAll grants every kind in request atomically: either all of it fits
// and is recorded, or nothing changes.
func (rp *ResourcePool) AllocateAll(pid ProcessID, request map[ResourceKind]int64) bool {
	for kind, q := range request {
		if q < 0 {
			return false
		}
		if rp.used[kind]+q > rp.capacity[kind] {
			return false
		}
	}
	for kind, q := range request {
		if q == 0 {
			continue
		}
		if rp.held[pid] == nil {
			rp.held[pid] = make(map[ResourceKind]int64)
		}
		rp.held[pid][kind] += q
		rp.used[kind] += q
	}
	return true
}

// Release returns quantity units of kind held by pid.
func (rp *ResourcePool) Release(pid ProcessID, kind ResourceKind, quantity int64) error {
	if quantity < 0 {
		return fmt.Errorf("%w: process %d negative quantity %d of %q", ErrInvalidRelease, pid, quantity, kind)
	}
	have := rp.held[pid][kind]
	if quantity > have {
		return fmt.Errorf("%w: process %d releasing %d of %q but holds %d", ErrInvalidRelease, pid, quantity, kind, have)
	}
	if quantity == 0 {
		return nil
	}
	rp.used[kind] -= quantity
	if have == quantity {
		delete(rp.held[pid], kind)
		if len(rp.held[pid]) == 0 {
			delete(rp.held, pid)
		}
	} else {
		rp.held[pid][kind] = have - quantity
	}
	return nil
}

// ReleaseAll returns everything pid holds. No-op if it holds nothing.
func (rp *ResourcePool) ReleaseAll(pid ProcessID) {
	for kind, q := range rp.held[pid] {
		rp.used[kind] -= q
	}
	delete(rp.held, pid)
}

// Holds reports whether pid currently holds any grant.
func (rp *ResourcePool) Holds(pid ProcessID) bool {
	return len(rp.held[pid]) > 0
}

// Held returns a copy of what pid holds.
func (rp *ResourcePool) Held(pid ProcessID) map[ResourceKind]int64 {
	return copyQuantities(rp.held[pid])
}

// Has reports whether kind is configured in this pool.
func (rp *ResourcePool) Has(kind ResourceKind) bool {
	_, ok := rp.capacity[kind]
	return ok
}

// Capacity returns the fixed capacity of kind.
func (rp *ResourcePool) Capacity(kind ResourceKind) int64 { return rp.capacity[kind] }

// Used returns the units of kind currently allocated.
func (rp *ResourcePool) Used(kind ResourceKind) int64 { return rp.used[kind] }

// Free returns the unallocated units of kind.
func (rp *ResourcePool) Free(kind ResourceKind) int64 { return rp.capacity[kind] - rp.used[kind] }

// Utilization returns used/capacity for kind, or 0 for a zero-capacity kind.
func (rp *ResourcePool) Utilization(kind ResourceKind) float64 {
	c := rp.capacity[kind]
	if c == 0 {
		return 0
	}
	return float64(rp.used[kind]) / float64(c)
}

// Kinds returns the configured resource kinds in lexicographic order.
func (rp *ResourcePool) Kinds() []ResourceKind {
	return sortedKinds(rp.capacity)
}
