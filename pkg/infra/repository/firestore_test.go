package repository_test

import (
	"context"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"github.com/m-mizutani/lintgate/pkg/infra/repository"
)

func TestFirestore(t *testing.T) {
	projectID := os.Getenv("TEST_LINTGATE_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_LINTGATE_FIRESTORE_PROJECT_ID is not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, projectID)
	gt.NoError(t, err)
	defer client.Close()

	// A fresh collection per run keeps List assertions independent of earlier runs
	testRepository(t, repository.NewFirestore(client, "lintgate-test-"+types.NewJobID().String()))
}
