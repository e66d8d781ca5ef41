package modkit

import (
	"likert/internal/modkit/module"
)

// Module is the contract main mounts; see module.Module
type Module = module.Module

// Builder is the constructor shape every module exposes as New
type Builder func(Deps, ...Option) Module
