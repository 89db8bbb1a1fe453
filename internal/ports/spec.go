package ports

import "modforge/internal/types"

type PackSpecPort interface {
	LoadPack(path string) (types.PackSpec, error)
}

type PolicySourcePort interface {
	LoadPolicy(path string) (types.PolicyDocument, error)
}
