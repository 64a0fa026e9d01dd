package device

import (
	"fmt"

	"github.com/tt-npe/npe-go/internal/npeerr"
	"github.com/tt-npe/npe-go/npe"
)

type constructor func() npe.DeviceModel

var registry = map[string]constructor{}

func register(name string, ctor constructor) {
	registry[name] = ctor
}

func init() {
	register("wormhole_b0", newWormholeB0)
	register("N150", newN150)
	register("N300", newN300)
	register("T3K", newT3K)
	register("TG", newTG)
	register("GALAXY", newGalaxy)
	register("blackhole", newBlackholeP100)
	register("P100", newBlackholeP100)
	register("P150", newBlackholeP150)
	register("wormhole_q", newWormholeQ)
}

// New constructs the named device model. Supported names: wormhole_b0,
// N150, N300, T3K, TG, GALAXY, blackhole (alias for P100), P100, P150,
// wormhole_q.
func New(name string) (npe.DeviceModel, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown device %q", npeerr.ErrDeviceModelInit, name)
	}
	return ctor(), nil
}

// Names returns every registered device name, for CLI help text.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
