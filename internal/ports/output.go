package ports

import "modforge/internal/types"

type OutputPort interface {
	WriteManifest(manifest types.Manifest) error
	WriteLockFile(lock types.LockFile) error
	WriteDiagnostics(diags []types.Diagnostic) error
}
