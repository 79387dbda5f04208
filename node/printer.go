// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
	"strings"

	"github.com/relaxml/relaxvm/tensor"
)

// reprPrinter renders an object graph in a compact expression form
// for diagnostics. When a target path is set, the subtree at that
// path is wrapped in << >> markers.
type reprPrinter struct {
	target *ObjectPath
	b      strings.Builder
}

// reprAny renders [v] with no path marked.
func reprAny(v interface{}) string {
	p := &reprPrinter{}
	p.print(v, RootPath())
	return p.b.String()
}

// reprAnyUnderlined renders [v] with the subtree at [target] marked.
func reprAnyUnderlined(v interface{}, target *ObjectPath) string {
	p := &reprPrinter{target: target}
	p.print(v, RootPath())
	return p.b.String()
}

func (r *reprPrinter) marked(path *ObjectPath) bool {
	return r.target != nil && path.Equal(r.target)
}

// leaf writes [s], marking it when [path] is the target.
func (r *reprPrinter) leaf(s string, path *ObjectPath) {
	if r.marked(path) {
		r.b.WriteString("<<")
		r.b.WriteString(s)
		r.b.WriteString(">>")
		return
	}
	r.b.WriteString(s)
}

// attrLeaf writes [s], marking it when either the node path or its
// [attr] path is the target.
func (r *reprPrinter) attrLeaf(s string, path *ObjectPath, attr string) {
	if r.marked(path.Attr(attr)) {
		r.leaf(s, path.Attr(attr))
		return
	}
	r.leaf(s, path)
}

func (r *reprPrinter) print(v interface{}, path *ObjectPath) {
	wrap := r.marked(path)
	if wrap {
		r.b.WriteString("<<")
	}
	r.printInner(v, path)
	if wrap {
		r.b.WriteString(">>")
	}
}

func (r *reprPrinter) printInner(v interface{}, path *ObjectPath) {
	switch n := v.(type) {
	case nil:
		r.b.WriteString("None")
	case *Var:
		r.b.WriteString("%" + n.NameHint)
	case *GlobalVar:
		r.b.WriteString("@" + n.NameHint)
	case *Op:
		r.b.WriteString(n.Name)
	case *IntImm:
		r.leaf(fmt.Sprintf("%d", n.Value), path.Attr("value"))
	case *FloatImm:
		r.leaf(fmt.Sprintf("%g", n.Value), path.Attr("value"))
	case *StringImm:
		r.leaf(fmt.Sprintf("%q", n.Value), path.Attr("value"))
	case *Array:
		r.b.WriteString("[")
		for i, elem := range n.Elems {
			if i > 0 {
				r.b.WriteString(", ")
			}
			r.print(elem, path.Index(i))
		}
		r.b.WriteString("]")
	case *Call:
		r.print(n.Op, path.Attr("op"))
		r.b.WriteString("(")
		if n.Args != nil {
			argsPath := path.Attr("args")
			for i, arg := range n.Args.Elems {
				if i > 0 {
					r.b.WriteString(", ")
				}
				r.print(arg, argsPath.Index(i))
			}
		}
		r.b.WriteString(")")
	case *Function:
		r.b.WriteString("fn(")
		if n.Params != nil {
			paramsPath := path.Attr("params")
			for i, param := range n.Params.Elems {
				if i > 0 {
					r.b.WriteString(", ")
				}
				r.print(param, paramsPath.Index(i))
			}
		}
		r.b.WriteString(") { ")
		r.print(n.Body, path.Attr("body"))
		r.b.WriteString(" }")
	case *Let:
		r.b.WriteString("let ")
		r.print(n.Var, path.Attr("var"))
		r.b.WriteString(" = ")
		r.print(n.Value, path.Attr("value"))
		r.b.WriteString(" in ")
		r.print(n.Body, path.Attr("body"))
	case *OpAttrs:
		r.b.WriteString("attrs{")
		r.attrLeaf(fmt.Sprintf("inplace=%v", n.Inplace), path, "inplace")
		r.b.WriteString(", ")
		r.attrLeaf(fmt.Sprintf("workspace=%d", n.Workspace), path, "workspace")
		r.b.WriteString(", ")
		r.attrLeaf(fmt.Sprintf("layout=%q", n.Layout), path, "layout")
		r.b.WriteString(", ")
		r.attrLeaf(fmt.Sprintf("axis=%d", n.Axis), path, "axis")
		r.b.WriteString("}")
	case *tensor.NDArray:
		dims := make([]string, len(n.Shape))
		for i, d := range n.Shape {
			dims[i] = fmt.Sprintf("%d", d)
		}
		r.b.WriteString(fmt.Sprintf("ndarray(%s[%s])", n.DType, strings.Join(dims, ", ")))
	case string:
		r.b.WriteString(fmt.Sprintf("%q", n))
	default:
		r.b.WriteString(fmt.Sprintf("%v", n))
	}
}
