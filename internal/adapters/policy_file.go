package adapters

import (
	"os"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"modforge/internal/ports"
	"modforge/internal/types"
)

type PolicyFileAdapter struct{}

func NewPolicyFileAdapter() PolicyFileAdapter {
	return PolicyFileAdapter{}
}

func (a PolicyFileAdapter) LoadPolicy(path string) (types.PolicyDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PolicyDocument{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("policy document not found").
			WithCause(err)
	}
	var doc types.PolicyDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.PolicyDocument{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("invalid policy document format").
			WithCause(err)
	}
	return doc, nil
}

var _ ports.PolicySourcePort = PolicyFileAdapter{}
