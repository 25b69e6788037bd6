package logstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/logstore"
)

func TestFileSystem_Save(t *testing.T) {
	base := t.TempDir()
	store := logstore.NewFileSystem(base)

	ref, err := store.Save(context.Background(), types.JobID("job-1"), types.StepLint, []byte("1     E501 line too long"))
	gt.NoError(t, err)
	gt.Value(t, ref).Equal(filepath.Join(base, "job-1", "lint.log"))

	data, err := os.ReadFile(ref)
	gt.NoError(t, err)
	gt.String(t, string(data)).Contains("E501")

	// Overwrites on re-run of the same job step
	_, err = store.Save(context.Background(), types.JobID("job-1"), types.StepLint, []byte("0"))
	gt.NoError(t, err)
	data, err = os.ReadFile(ref)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal("0")
}
