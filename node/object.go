// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"fmt"
)

// Object is a node of a heterogeneous object graph. Every node type
// needs a registered reducer that breaks it down into its children;
// comparing a node whose type has none panics.
type Object interface {
	TypeKey() string
}

// SEqualReduceFn compares two nodes of the same type by reducing
// them to comparisons of their children through [equal].
type SEqualReduceFn func(lhs, rhs Object, equal SEqualReducer) bool

// sequalTable dispatches structural reduction by type key. It is
// filled from init functions and append-only afterwards.
var sequalTable = map[string]SEqualReduceFn{}

// RegisterSEqualReduce installs the reducer for [typeKey].
func RegisterSEqualReduce(typeKey string, fn SEqualReduceFn) error {
	if _, ok := sequalTable[typeKey]; ok {
		return fmt.Errorf("SEqualReduce of %s registered twice", typeKey)
	}
	sequalTable[typeKey] = fn
	return nil
}

// sequalReduceFor returns the registered reducer for [obj], or
// panics naming the missing registration.
func sequalReduceFor(obj Object) SEqualReduceFn {
	fn, ok := sequalTable[obj.TypeKey()]
	if !ok {
		panic(fmt.Sprintf("TypeError: SEqualReduce of %s is not registered", obj.TypeKey()))
	}
	return fn
}

// anyTypeTag returns the comparison tag of a heterogeneous value.
// Objects carry their type key; primitive leaves get a fixed tag per
// Go type.
func anyTypeTag(v interface{}) string {
	if v == nil {
		return "nil"
	}
	if obj, ok := v.(Object); ok {
		return obj.TypeKey()
	}
	switch v.(type) {
	case bool:
		return "bool"
	case int:
		return "int"
	case int64:
		return "int"
	case uint64:
		return "uint"
	case float64:
		return "float"
	case string:
		return "str"
	default:
		return fmt.Sprintf("%T", v)
	}
}
