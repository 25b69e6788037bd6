// Package logstore keeps step output of lint jobs.
package logstore

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// FileSystem stores logs as <base>/<job id>/<step>.log
type FileSystem struct {
	baseDir string
}

// NewFileSystem creates a log store rooted at baseDir
func NewFileSystem(baseDir string) *FileSystem {
	return &FileSystem{baseDir: baseDir}
}

// objectName is the relative location of a step log, shared by all stores
func objectName(id types.JobID, step types.StepName) string {
	return id.String() + "/" + string(step) + ".log"
}

// Save writes data and returns the file path
func (x *FileSystem) Save(ctx context.Context, id types.JobID, step types.StepName, data []byte) (string, error) {
	path := filepath.Join(x.baseDir, filepath.FromSlash(objectName(id, step)))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", goerr.Wrap(err, "failed to create log directory", goerr.V("dir", filepath.Dir(path)))
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", goerr.Wrap(err, "failed to write log", goerr.V("path", path))
	}

	return path, nil
}
