// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package relaxvm

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"

	"github.com/relaxml/relaxvm/registry"
)

func init() {
	errs := wrappers.Errs{}

	errs.Add(
		registry.Register("relax.ExecutableLoadFromFile", LoadFromFile),
		registry.Register("runtime.module.loadbinary_relax.VMExecutable", LoadFromBinary),
		registry.Register("runtime.module.loadfile_relax.VMExecutable", LoadFromFile),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}
