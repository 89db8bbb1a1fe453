package adapters

import (
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"modforge/internal/core"
	"modforge/internal/ports"
	"modforge/internal/types"
)

const manifestFileName = "modforge.manifest.json"
const lockFileName = "modforge.lock.yaml"
const diagnosticsFileName = "diagnostics.yaml"

// OutputFileAdapter writes resolution artifacts into an output
// directory. Content ordering is supplied by the core projections; this
// adapter only serializes and writes.
type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

func (a OutputFileAdapter) WriteManifest(manifest types.Manifest) error {
	data, err := core.MarshalManifest(manifest)
	if err != nil {
		return err
	}
	path, err := a.ensurePath(manifestFileName)
	if err != nil {
		return err
	}
	return a.write(path, data)
}

func (a OutputFileAdapter) WriteLockFile(lock types.LockFile) error {
	data, err := yaml.Marshal(lock)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal lock file").
			WithCause(err)
	}
	path, err := a.ensurePath(lockFileName)
	if err != nil {
		return err
	}
	return a.write(path, data)
}

// WriteDiagnostics writes the diagnostics file only when there is
// something to report.
func (a OutputFileAdapter) WriteDiagnostics(diags []types.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	data, err := yaml.Marshal(diags)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal diagnostics").
			WithCause(err)
	}
	path, err := a.ensurePath(diagnosticsFileName)
	if err != nil {
		return err
	}
	return a.write(path, data)
}

func (a OutputFileAdapter) ensurePath(name string) (string, error) {
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, name), nil
}

func (a OutputFileAdapter) write(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write output file").
			WithCause(err)
	}
	return nil
}

var _ ports.OutputPort = OutputFileAdapter{}
