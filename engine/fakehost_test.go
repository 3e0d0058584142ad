package engine_test

import (
	"fmt"

	"github.com/sarchlab/redpile/host"
	"github.com/sarchlab/redpile/registry"
)

// behaviorFunc is the HostRef shape funcHost understands: a plain Go
// closure over a host.Context, letting scheduler tests exercise real
// control flow without going through the goja-backed ScriptHost.
type behaviorFunc func(host.Context)

// funcHost runs behaviorFunc refs directly, standing in for a real
// Behavior Host in scheduler tests.
type funcHost struct{}

func (funcHost) Run(ref registry.HostRef, ctx host.Context) error {
	fn, ok := ref.(behaviorFunc)
	if !ok {
		return fmt.Errorf("fakehost: ref %T is not a behaviorFunc", ref)
	}
	fn(ctx)
	return nil
}
