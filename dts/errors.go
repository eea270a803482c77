package dts

import "github.com/teranos/dtsgen/errors"

// Failure classes of Emit. Test with errors.Is; the returned errors carry
// the underlying cause and the target's paths.
var (
	ErrReadInput   = errors.New("cannot read declaration input")
	ErrPluginLoad  = errors.New("cannot load plugin")
	ErrWriteOutput = errors.New("cannot write declaration output")
)
