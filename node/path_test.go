// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathRendering(t *testing.T) {
	assert := assert.New(t)

	root := RootPath()
	assert.Equal("<root>", root.String())

	path := root.Attr("body").Attr("args").Index(1).Attr("value")
	assert.Equal("<root>.body.args[1].value", path.String())

	assert.Equal("<root>.params.<missing>", root.Attr("params").Missing().String())
}

func TestPathEquality(t *testing.T) {
	assert := assert.New(t)

	a := RootPath().Attr("body").Index(0)
	b := RootPath().Attr("body").Index(0)
	c := RootPath().Attr("body").Index(1)
	d := RootPath().Attr("body")

	assert.True(a.Equal(b))
	assert.True(b.Equal(a))
	assert.False(a.Equal(c))
	assert.False(a.Equal(d))
	assert.False(a.Equal(nil))
}

func TestPathSharing(t *testing.T) {
	assert := assert.New(t)

	// extending a path leaves the prefix untouched
	base := RootPath().Attr("args")
	left := base.Index(0)
	right := base.Index(1)
	assert.Equal("<root>.args[0]", left.String())
	assert.Equal("<root>.args[1]", right.String())
	assert.Equal("<root>.args", base.String())
	assert.Equal(3, left.Length())
}

func TestPathPair(t *testing.T) {
	assert := assert.New(t)

	pair := PathPair(RootPath().Attr("a"), RootPath().Attr("b"))
	assert.Equal("<root>.a", pair.LhsPath.String())
	assert.Equal("<root>.b", pair.RhsPath.String())
}
