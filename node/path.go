// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
	"strings"
)

// PathKind discriminates the segments of an ObjectPath.
type PathKind int

const (
	PathRoot PathKind = iota
	PathAttr
	PathIndex
	PathMissing
)

// ObjectPath is an immutable location in an object graph: a root
// segment followed by attribute and index segments. Extending a path
// shares the prefix, so paths are cheap to fork during traversal.
type ObjectPath struct {
	kind   PathKind
	parent *ObjectPath
	attr   string
	index  int
	length int
}

// RootPath returns the path designating the root object.
func RootPath() *ObjectPath {
	return &ObjectPath{kind: PathRoot, length: 1}
}

// Attr returns this path extended with an attribute segment.
func (p *ObjectPath) Attr(name string) *ObjectPath {
	return &ObjectPath{kind: PathAttr, parent: p, attr: name, length: p.length + 1}
}

// Index returns this path extended with an index segment.
func (p *ObjectPath) Index(i int) *ObjectPath {
	return &ObjectPath{kind: PathIndex, parent: p, index: i, length: p.length + 1}
}

// Missing returns this path extended with a segment marking an
// element present on one side only.
func (p *ObjectPath) Missing() *ObjectPath {
	return &ObjectPath{kind: PathMissing, parent: p, length: p.length + 1}
}

// Length returns the number of segments including the root.
func (p *ObjectPath) Length() int { return p.length }

// Equal reports segment-wise equality of two paths.
func (p *ObjectPath) Equal(other *ObjectPath) bool {
	if p == nil || other == nil {
		return p == other
	}
	if p.length != other.length {
		return false
	}
	for a, b := p, other; a != nil; a, b = a.parent, b.parent {
		if a.kind != b.kind || a.attr != b.attr || a.index != b.index {
			return false
		}
	}
	return true
}

// String renders the compact dotted form, e.g. "<root>.body.args[1]".
func (p *ObjectPath) String() string {
	var segs []string
	for seg := p; seg != nil; seg = seg.parent {
		switch seg.kind {
		case PathRoot:
			segs = append(segs, "<root>")
		case PathAttr:
			segs = append(segs, "."+seg.attr)
		case PathIndex:
			segs = append(segs, fmt.Sprintf("[%d]", seg.index))
		case PathMissing:
			segs = append(segs, ".<missing>")
		}
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteString(segs[i])
	}
	return b.String()
}

// ObjectPathPair carries the lhs and rhs locations of one comparison
// point.
type ObjectPathPair struct {
	LhsPath *ObjectPath
	RhsPath *ObjectPath
}

// PathPair pairs up an lhs and an rhs path.
func PathPair(lhs, rhs *ObjectPath) *ObjectPathPair {
	return &ObjectPathPair{LhsPath: lhs, RhsPath: rhs}
}
