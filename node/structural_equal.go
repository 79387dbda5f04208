// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/relaxml/relaxvm/registry"
)

// task is one pending comparison of the stack engine.
type task struct {
	lhs Object
	rhs Object

	// currentPaths are the paths from the roots to lhs and rhs,
	// present only while path tracing is enabled.
	currentPaths *ObjectPathPair

	mapFreeVars bool

	// childrenExpanded flips once the task's reducer has run and its
	// children have been scheduled.
	childrenExpanded bool

	// graphEqual marks the task for insertion into the remap maps on
	// successful completion.
	graphEqual bool

	// forceFail makes the task fail with currentPaths without
	// comparing anything.
	forceFail bool
}

// SEqualHandlerDefault is the non-recursive structural-equality
// engine. Comparisons are pushed onto an explicit stack, so the
// recursion depth is bounded by the input graph, not the host stack.
//
// The order in which per-type reducers run is the depth-first,
// left-to-right order plain recursive descent would produce; the
// pending list is drained in reverse to preserve it.
//
// We cannot short-circuit on lhs and rhs being the same object when
// free-variable remapping is enabled. Counter example with shared
// variables %x, %y:
//
//	function0: fn (%x, %y) { %x + %y }
//	function1: fn (%y, %x) { %x + %y }
//
// The parameter lists differ even though every node of the bodies is
// shared, so comparison has to reach the leaves.
type SEqualHandlerDefault struct {
	assertMode bool
	tracing    bool
	deferFails bool

	firstMismatch *ObjectPathPair
	assertErr     error

	pendingTasks []task
	taskStack    []task
	allowPush    bool

	equalMapLhs map[Object]Object
	equalMapRhs map[Object]Object

	rootLhs interface{}
	rootRhs interface{}
}

var _ SEqualHandler = (*SEqualHandlerDefault)(nil)

// NewSEqualHandler returns an engine instance. With [traceMismatch],
// the first mismatching path pair is recorded and retrievable via
// FirstMismatch. With [assertMode], a failed comparison also formats
// a diagnostic, retrievable via AssertError. With [deferFails],
// coarse mismatches are postponed so a finer path discovered later
// in traversal order wins the report.
func NewSEqualHandler(assertMode, traceMismatch, deferFails bool) *SEqualHandlerDefault {
	return &SEqualHandlerDefault{
		assertMode: assertMode,
		tracing:    traceMismatch,
		deferFails: deferFails,
		allowPush:  true,
	}
}

// FirstMismatch returns the recorded mismatch paths, or nil when the
// comparison succeeded or tracing was disabled.
func (h *SEqualHandlerDefault) FirstMismatch() *ObjectPathPair { return h.firstMismatch }

// AssertError returns the diagnostic of a failed assert-mode run.
func (h *SEqualHandlerDefault) AssertError() error { return h.assertErr }

// Equal compares two heterogeneous values. Non-object values with
// identical tags compare bitwise; objects run the stack engine.
func (h *SEqualHandlerDefault) Equal(lhs, rhs interface{}, mapFreeVars bool) bool {
	h.taskStack = h.taskStack[:0]
	h.pendingTasks = h.pendingTasks[:0]
	h.equalMapLhs = map[Object]Object{}
	h.equalMapRhs = map[Object]Object{}
	h.allowPush = true
	h.rootLhs = lhs
	h.rootRhs = rhs

	var currentPaths *ObjectPathPair
	if h.tracing {
		root := RootPath()
		currentPaths = PathPair(root, root)
	}

	lhs, rhs = normalizeAny(lhs), normalizeAny(rhs)
	if anyTypeTag(lhs) != anyTypeTag(rhs) {
		return h.checkResult(false, lhs, rhs, currentPaths)
	}

	lhsObj, lhsIsObj := lhs.(Object)
	rhsObj, rhsIsObj := rhs.(Object)
	if !lhsIsObj || !rhsIsObj {
		if anyBitsEqual(lhs, rhs) {
			return true
		}
		return h.checkResult(false, lhs, rhs, currentPaths)
	}

	if !h.SEqualReduce(lhsObj, rhsObj, mapFreeVars, currentPaths) {
		return false
	}
	if len(h.pendingTasks) != 1 {
		panic(fmt.Sprintf("expected exactly one pending task after the root reduction, have %d", len(h.pendingTasks)))
	}
	h.taskStack = append(h.taskStack, h.pendingTasks[0])
	h.pendingTasks = h.pendingTasks[:0]
	return h.runTasks()
}

// SEqualReduce resolves a comparison early when it can, otherwise it
// schedules a pending task for the pair.
func (h *SEqualHandlerDefault) SEqualReduce(lhs, rhs Object, mapFreeVars bool, currentPaths *ObjectPathPair) bool {
	earlyResult, resolved := func() (bool, bool) {
		if lhs == nil && rhs == nil {
			return true, true
		}
		if lhs == nil || rhs == nil {
			return false, true
		}
		if lhs.TypeKey() != rhs.TypeKey() {
			return false, true
		}
		if mapped, ok := h.equalMapLhs[lhs]; ok {
			return mapped == rhs, true
		}
		if _, ok := h.equalMapRhs[rhs]; ok {
			return false, true
		}
		return false, false
	}()

	if resolved {
		if earlyResult {
			return true
		}
		if h.tracing && h.deferFails && currentPaths != nil {
			// Postpone: a finer path discovered later in a sibling
			// wins the report.
			h.DeferFail(currentPaths)
			return true
		}
		return h.checkResult(false, lhs, rhs, currentPaths)
	}

	h.pendingTasks = append(h.pendingTasks, task{
		lhs:          lhs,
		rhs:          rhs,
		currentPaths: currentPaths,
		mapFreeVars:  mapFreeVars,
	})
	return true
}

// DeferFail schedules a task that fails with [paths] once reached.
func (h *SEqualHandlerDefault) DeferFail(paths *ObjectPathPair) {
	h.pendingTasks = append(h.pendingTasks, task{currentPaths: paths, forceFail: true})
}

// IsFailDeferralEnabled reports whether DeferFail is honored.
func (h *SEqualHandlerDefault) IsFailDeferralEnabled() bool { return h.deferFails }

// MarkGraphNode marks the task being expanded as a graph node. Only
// a per-type reducer may call this, during expansion.
func (h *SEqualHandlerDefault) MarkGraphNode() {
	if h.allowPush || len(h.taskStack) == 0 {
		panic("MarkGraphNode() must be called from a reducer during expansion")
	}
	h.taskStack[len(h.taskStack)-1].graphEqual = true
}

// MapLhsToRhs returns the recorded counterpart of [lhs], or [lhs]
// itself when none exists.
func (h *SEqualHandlerDefault) MapLhsToRhs(lhs Object) Object {
	if mapped, ok := h.equalMapLhs[lhs]; ok {
		return mapped
	}
	return lhs
}

// dispatchSEqualReduce runs the type-specific reducer for the pair.
func (h *SEqualHandlerDefault) dispatchSEqualReduce(lhs, rhs Object, mapFreeVars bool, currentPaths *ObjectPathPair) bool {
	result := func() bool {
		// Skip entries that already have equality maps.
		if mapped, ok := h.equalMapLhs[lhs]; ok {
			return mapped == rhs
		}
		if _, ok := h.equalMapRhs[rhs]; ok {
			return false
		}

		equal := SEqualReducer{handler: h, mapFreeVars: mapFreeVars}
		if h.tracing {
			equal.tracing = &pathTracingData{
				currentPaths:  currentPaths,
				firstMismatch: &h.firstMismatch,
			}
		}
		return sequalReduceFor(lhs)(lhs, rhs, equal)
	}()
	return h.checkResult(result, lhs, rhs, currentPaths)
}

// runTasks drains the stack. Children scheduled by an expansion are
// pushed in reverse so earlier-enqueued children expand first.
func (h *SEqualHandlerDefault) runTasks() bool {
	for len(h.taskStack) != 0 {
		top := len(h.taskStack) - 1
		entry := h.taskStack[top]

		if entry.forceFail {
			return h.checkResult(false, entry.lhs, entry.rhs, entry.currentPaths)
		}

		if entry.childrenExpanded {
			// Every check of this entry has passed; lhs and rhs are
			// known equal to each other.
			if mapped, ok := h.equalMapLhs[entry.lhs]; ok && mapped != entry.rhs {
				panic("remap consistency violated during structural equality")
			}
			if entry.graphEqual {
				h.equalMapLhs[entry.lhs] = entry.rhs
				h.equalMapRhs[entry.rhs] = entry.lhs
			}
			h.taskStack = h.taskStack[:top]
			continue
		}

		h.taskStack[top].childrenExpanded = true
		if len(h.pendingTasks) != 0 {
			panic("pending tasks must be empty before expansion")
		}
		h.allowPush = false
		if !h.dispatchSEqualReduce(entry.lhs, entry.rhs, entry.mapFreeVars, entry.currentPaths) {
			return false
		}
		h.allowPush = true
		for len(h.pendingTasks) != 0 {
			last := len(h.pendingTasks) - 1
			h.taskStack = append(h.taskStack, h.pendingTasks[last])
			h.pendingTasks = h.pendingTasks[:last]
		}
	}
	return true
}

// checkResult records the first mismatch and, in assert mode, the
// formatted diagnostic.
func (h *SEqualHandlerDefault) checkResult(result bool, lhs, rhs interface{}, currentPaths *ObjectPathPair) bool {
	if h.tracing && !result && h.firstMismatch == nil {
		h.firstMismatch = currentPaths
	}
	if h.assertMode && !result && h.assertErr == nil {
		h.assertErr = h.formatMismatch(lhs, rhs)
	}
	return result
}

// formatMismatch renders both roots with the first-mismatch path
// marked, or the offending values themselves when no path was
// recorded.
func (h *SEqualHandlerDefault) formatMismatch(lhs, rhs interface{}) error {
	var b strings.Builder
	b.WriteString("ValueError: StructuralEqual check failed, caused by lhs")
	if h.firstMismatch != nil {
		fmt.Fprintf(&b, " at %s:\n", h.firstMismatch.LhsPath)
		b.WriteString(reprAnyUnderlined(h.rootLhs, h.firstMismatch.LhsPath))
	} else {
		fmt.Fprintf(&b, ":\n%s", reprAny(lhs))
	}
	b.WriteString("\nand rhs")
	if h.firstMismatch != nil {
		fmt.Fprintf(&b, " at %s:\n", h.firstMismatch.RhsPath)
		b.WriteString(reprAnyUnderlined(h.rootRhs, h.firstMismatch.RhsPath))
	} else {
		fmt.Fprintf(&b, ":\n%s", reprAny(rhs))
	}
	return fmt.Errorf("%s", b.String())
}

// StructuralEqual reports structural equality of two values without
// recording diagnostics.
func StructuralEqual(lhs, rhs interface{}, mapFreeVars bool) bool {
	return NewSEqualHandler(false, false, false).Equal(lhs, rhs, mapFreeVars)
}

// GetFirstStructuralMismatch returns the paths of the first mismatch
// in traversal order, or nil when the values are equal. Fail
// deferral is enabled so the finest mismatch wins.
func GetFirstStructuralMismatch(lhs, rhs interface{}, mapFreeVars bool) *ObjectPathPair {
	h := NewSEqualHandler(false, true, true)
	equal := h.Equal(lhs, rhs, mapFreeVars)
	if equal != (h.FirstMismatch() == nil) {
		panic("mismatch recording out of sync with the comparison result")
	}
	return h.FirstMismatch()
}

// AssertStructuralEqual returns nil when the values are structurally
// equal, otherwise a diagnostic naming the first-mismatch paths and
// rendering both roots.
func AssertStructuralEqual(lhs, rhs interface{}, mapFreeVars bool) error {
	h := NewSEqualHandler(true, true, true)
	if h.Equal(lhs, rhs, mapFreeVars) {
		return nil
	}
	return h.AssertError()
}

func init() {
	errs := wrappers.Errs{}

	errs.Add(
		registry.Register("node.StructuralEqual", StructuralEqual),
		registry.Register("node.GetFirstStructuralMismatch", GetFirstStructuralMismatch),
		registry.Register("node.ObjectPathPairLhsPath", func(pair *ObjectPathPair) *ObjectPath { return pair.LhsPath }),
		registry.Register("node.ObjectPathPairRhsPath", func(pair *ObjectPathPair) *ObjectPath { return pair.RhsPath }),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
