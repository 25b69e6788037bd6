package logstore_test

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/logstore"
)

func TestCloudStorage_Save(t *testing.T) {
	bucket := os.Getenv("TEST_LINTGATE_GCS_BUCKET")
	if bucket == "" {
		t.Skip("TEST_LINTGATE_GCS_BUCKET is not set")
	}

	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	gt.NoError(t, err)
	defer client.Close()

	store := logstore.NewCloudStorage(client, bucket, "test")
	ref, err := store.Save(ctx, types.NewJobID(), types.StepLint, []byte("0"))
	gt.NoError(t, err)
	gt.String(t, ref).Contains("gs://" + bucket + "/test/")
}
