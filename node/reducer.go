// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"math"

	"github.com/relaxml/relaxvm/tensor"
)

// SEqualHandler drives the reduction. SEqualReducer is the facade
// reducers see; the handler owns the traversal and the remap maps.
type SEqualHandler interface {
	// SEqualReduce schedules the comparison of two child objects.
	SEqualReduce(lhs, rhs Object, mapFreeVars bool, currentPaths *ObjectPathPair) bool
	// DeferFail postpones a failure carrying [paths] until the
	// already-scheduled children have been visited.
	DeferFail(paths *ObjectPathPair)
	// IsFailDeferralEnabled reports whether DeferFail is honored.
	IsFailDeferralEnabled() bool
	// MarkGraphNode opts the task being expanded into the remap maps.
	MarkGraphNode()
	// MapLhsToRhs returns the recorded counterpart of [lhs], or
	// [lhs] itself when none exists.
	MapLhsToRhs(lhs Object) Object
}

// pathTracingData is present on a reducer only when path tracing is
// enabled.
type pathTracingData struct {
	currentPaths *ObjectPathPair
	firstMismatch **ObjectPathPair
}

// SEqualReducer is the typed comparison facade handed to per-type
// reducers. Attribute names are passed explicitly at every call site
// so mismatch paths can be synthesized without reflection over field
// addresses.
type SEqualReducer struct {
	handler     SEqualHandler
	tracing     *pathTracingData
	mapFreeVars bool
}

// IsPathTracingEnabled reports whether mismatch paths are recorded.
func (e SEqualReducer) IsPathTracingEnabled() bool { return e.tracing != nil }

// GetCurrentObjectPaths returns the paths of the objects being
// reduced. Callable only when path tracing is enabled.
func (e SEqualReducer) GetCurrentObjectPaths() *ObjectPathPair {
	if e.tracing == nil {
		panic("GetCurrentObjectPaths() can only be called when path tracing is enabled")
	}
	return e.tracing.currentPaths
}

// RecordMismatchPaths records [paths] as the first mismatch if none
// has been recorded. Callable only when path tracing is enabled.
func (e SEqualReducer) RecordMismatchPaths(paths *ObjectPathPair) {
	if e.tracing == nil {
		panic("RecordMismatchPaths() can only be called when path tracing is enabled")
	}
	if *e.tracing.firstMismatch == nil {
		*e.tracing.firstMismatch = paths
	}
}

// MarkGraphNode marks the node being expanded as a graph node; on
// success its lhs/rhs pair enters the remap maps.
func (e SEqualReducer) MarkGraphNode() { e.handler.MarkGraphNode() }

// DeferFail postpones a failure carrying [paths].
func (e SEqualReducer) DeferFail(paths *ObjectPathPair) { e.handler.DeferFail(paths) }

// IsFailDeferralEnabled reports whether DeferFail is honored.
func (e SEqualReducer) IsFailDeferralEnabled() bool { return e.handler.IsFailDeferralEnabled() }

// attrPaths extends the current paths with an attribute segment on
// both sides.
func (e SEqualReducer) attrPaths(attr string) *ObjectPathPair {
	cur := e.tracing.currentPaths
	return PathPair(cur.LhsPath.Attr(attr), cur.RhsPath.Attr(attr))
}

// recordMismatch stores the first mismatch: the explicit [paths] if
// given, otherwise paths synthesized from [attr].
func (e SEqualReducer) recordMismatch(attr string, paths *ObjectPathPair) {
	if e.tracing == nil || *e.tracing.firstMismatch != nil {
		return
	}
	if paths == nil {
		paths = e.attrPaths(attr)
	}
	*e.tracing.firstMismatch = paths
}

// compareValues is the shared tail of every primitive-leaf
// comparison.
func (e SEqualReducer) compareValues(equal bool, attr string, paths *ObjectPathPair) bool {
	if equal {
		return true
	}
	e.recordMismatch(attr, paths)
	return false
}

func (e SEqualReducer) BoolEqual(attr string, lhs, rhs bool) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

func (e SEqualReducer) IntEqual(attr string, lhs, rhs int64) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

// IntEqualAt compares integers at explicitly provided paths, e.g.
// tensor shape dimensions.
func (e SEqualReducer) IntEqualAt(lhs, rhs int64, paths *ObjectPathPair) bool {
	return e.compareValues(lhs == rhs, "", paths)
}

func (e SEqualReducer) UintEqual(attr string, lhs, rhs uint64) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

func (e SEqualReducer) FloatEqual(attr string, lhs, rhs float64) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

func (e SEqualReducer) StrEqual(attr string, lhs, rhs string) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

func (e SEqualReducer) DTypeEqual(attr string, lhs, rhs tensor.DataType) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

// OptIntEqual compares optional integers; nil only equals nil.
func (e SEqualReducer) OptIntEqual(attr string, lhs, rhs *int64) bool {
	if lhs == nil || rhs == nil {
		return e.compareValues(lhs == rhs, attr, nil)
	}
	return e.compareValues(*lhs == *rhs, attr, nil)
}

// OptFloatEqual compares optional floats; nil only equals nil.
func (e SEqualReducer) OptFloatEqual(attr string, lhs, rhs *float64) bool {
	if lhs == nil || rhs == nil {
		return e.compareValues(lhs == rhs, attr, nil)
	}
	return e.compareValues(*lhs == *rhs, attr, nil)
}

// EnumAttrsEqual compares small integer enums.
func (e SEqualReducer) EnumAttrsEqual(attr string, lhs, rhs int) bool {
	return e.compareValues(lhs == rhs, attr, nil)
}

// AnyEqual compares tagged heterogeneous values. Identical tags are
// required; object values reduce recursively, other values compare
// bitwise.
func (e SEqualReducer) AnyEqual(attr string, lhs, rhs interface{}) bool {
	lhs, rhs = normalizeAny(lhs), normalizeAny(rhs)
	if anyTypeTag(lhs) != anyTypeTag(rhs) {
		e.recordMismatch(attr, nil)
		return false
	}
	if lhsObj, ok := lhs.(Object); ok {
		return e.ObjectEqual(attr, lhsObj, rhs.(Object))
	}
	return e.compareValues(anyBitsEqual(lhs, rhs), attr, nil)
}

// ObjectEqual compares two child objects found at attribute [attr].
func (e SEqualReducer) ObjectEqual(attr string, lhs, rhs Object) bool {
	if e.tracing == nil {
		// Fast path: no path values are constructed.
		return e.handler.SEqualReduce(lhs, rhs, e.mapFreeVars, nil)
	}
	return e.objectEqual(lhs, rhs, e.mapFreeVars, e.attrPaths(attr))
}

// ObjectEqualAt compares two child objects at explicitly provided
// paths. Pass nil paths on the non-tracing fast path.
func (e SEqualReducer) ObjectEqualAt(lhs, rhs Object, paths *ObjectPathPair) bool {
	if e.tracing == nil {
		return e.handler.SEqualReduce(lhs, rhs, e.mapFreeVars, nil)
	}
	return e.objectEqual(lhs, rhs, e.mapFreeVars, paths)
}

// DefEqual compares definition sites: free-variable mapping is
// forced on for the subtree.
func (e SEqualReducer) DefEqual(attr string, lhs, rhs Object) bool {
	if e.tracing == nil {
		return e.handler.SEqualReduce(lhs, rhs, true, nil)
	}
	return e.objectEqual(lhs, rhs, true, e.attrPaths(attr))
}

func (e SEqualReducer) objectEqual(lhs, rhs Object, mapFreeVars bool, paths *ObjectPathPair) bool {
	if e.handler.SEqualReduce(lhs, rhs, mapFreeVars, paths) {
		return true
	}
	if *e.tracing.firstMismatch == nil {
		*e.tracing.firstMismatch = paths
	}
	return false
}

// FreeVarEqual compares two free variables. Distinct variables match
// only when free-variable mapping is enabled; identity always does.
func (e SEqualReducer) FreeVarEqual(lhs, rhs Object) bool {
	return lhs == rhs || e.mapFreeVars
}

// normalizeAny widens plain ints so tagged values compare by one
// integer representation.
func normalizeAny(v interface{}) interface{} {
	if i, ok := v.(int); ok {
		return int64(i)
	}
	return v
}

// anyBitsEqual compares two same-tag primitive values bitwise.
func anyBitsEqual(lhs, rhs interface{}) bool {
	switch l := lhs.(type) {
	case float64:
		return math.Float64bits(l) == math.Float64bits(rhs.(float64))
	default:
		return lhs == rhs
	}
}
