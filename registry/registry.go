// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry holds the process-wide table of named callables
// consumed by the surrounding framework. It is populated from init
// functions and append-only afterwards, so lookups need no locking.
package registry

import (
	"fmt"
	"sort"
)

var funcs = map[string]interface{}{}

// Register installs [fn] under [name]. Registering a name twice is
// an error.
func Register(name string, fn interface{}) error {
	if _, ok := funcs[name]; ok {
		return fmt.Errorf("callable %q registered twice", name)
	}
	funcs[name] = fn
	return nil
}

// Get returns the callable registered under [name].
func Get(name string) (interface{}, bool) {
	fn, ok := funcs[name]
	return fn, ok
}

// Names returns the registered names in sorted order.
func Names() []string {
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
