package app

import (
	"github.com/vk/gardenflow/internal/registry"
	"github.com/vk/gardenflow/modules/containerbuild"
	"github.com/vk/gardenflow/modules/httphealth"
)

// coreModules is the definitive list of all modules compiled into the CLI
// binary.
var coreModules = []registry.Module{
	&containerbuild.Module{},
	&httphealth.Module{},
}
