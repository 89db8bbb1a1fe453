package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"modforge/internal/ports"
	"modforge/internal/types"
)

type PackFileAdapter struct{}

func NewPackFileAdapter() PackFileAdapter {
	return PackFileAdapter{}
}

func (a PackFileAdapter) LoadPack(path string) (types.PackSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PackSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("pack spec file not found").
			WithCause(err)
	}
	var spec types.PackSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return types.PackSpec{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid pack spec format").
			WithCause(err)
	}
	return spec, nil
}

var _ ports.PackSpecPort = PackFileAdapter{}
