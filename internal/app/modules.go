package app

import (
	"github.com/specialistvlad/atlasgrid/internal/registry"
	"github.com/specialistvlad/atlasgrid/modules/box"
	"github.com/specialistvlad/atlasgrid/modules/boxgrid"
)

// coreModules is the definitive list of all model families that are compiled
// into the atlasgrid binary.
var coreModules = []registry.Module{
	&box.Module{},
	&boxgrid.Module{},
}
