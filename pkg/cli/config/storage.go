package config

import (
	"context"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/interfaces"
	"github.com/m-mizutani/lintgate/pkg/infra/logstore"
	"github.com/m-mizutani/lintgate/pkg/infra/repository"
	"github.com/urfave/cli/v3"
)

// Storage selects where job records and step logs are kept
type Storage struct {
	FirestoreProjectID  string
	FirestoreDatabaseID string
	FirestoreCollection string

	GCSBucket string
	GCSPrefix string

	LogDir string
}

// Flags returns CLI flags for storage configuration
func (c *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Google Cloud project of the Firestore job repository; in-memory when empty",
			Destination: &c.FirestoreProjectID,
			Sources:     cli.EnvVars("LINTGATE_FIRESTORE_PROJECT_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore database ID",
			Value:       firestore.DefaultDatabaseID,
			Destination: &c.FirestoreDatabaseID,
			Sources:     cli.EnvVars("LINTGATE_FIRESTORE_DATABASE_ID"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection for job records",
			Value:       repository.DefaultCollection,
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("LINTGATE_FIRESTORE_COLLECTION"),
		},
		&cli.StringFlag{
			Name:        "gcs-bucket",
			Usage:       "Cloud Storage bucket for step logs",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("LINTGATE_GCS_BUCKET"),
		},
		&cli.StringFlag{
			Name:        "gcs-prefix",
			Usage:       "Object prefix for step logs in the bucket",
			Destination: &c.GCSPrefix,
			Sources:     cli.EnvVars("LINTGATE_GCS_PREFIX"),
		},
		&cli.StringFlag{
			Name:        "log-dir",
			Usage:       "Local directory for step logs when no bucket is set; disabled when empty",
			Destination: &c.LogDir,
			Sources:     cli.EnvVars("LINTGATE_LOG_DIR"),
		},
	}
}

// NewJobRepository creates the job repository. The returned function releases it.
func (c *Storage) NewJobRepository(ctx context.Context) (interfaces.JobRepository, func(), error) {
	if c.FirestoreProjectID == "" {
		ctxlog.From(ctx).Info("Using in-memory job repository")
		return repository.NewMemory(), func() {}, nil
	}

	client, err := firestore.NewClientWithDatabase(ctx, c.FirestoreProjectID, c.FirestoreDatabaseID)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to create Firestore client",
			goerr.V("project_id", c.FirestoreProjectID),
			goerr.V("database_id", c.FirestoreDatabaseID),
		)
	}

	ctxlog.From(ctx).Info("Using Firestore job repository",
		"project_id", c.FirestoreProjectID,
		"database_id", c.FirestoreDatabaseID,
		"collection", c.FirestoreCollection,
	)
	closer := func() {
		if err := client.Close(); err != nil {
			ctxlog.From(ctx).Warn("Failed to close Firestore client", "error", err)
		}
	}
	return repository.NewFirestore(client, c.FirestoreCollection), closer, nil
}

// NewLogStore creates the step log store, or nil when logs are not kept. The returned
// function releases it.
func (c *Storage) NewLogStore(ctx context.Context) (interfaces.LogStore, func(), error) {
	switch {
	case c.GCSBucket != "":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to create Cloud Storage client", goerr.V("bucket", c.GCSBucket))
		}
		closer := func() {
			if err := client.Close(); err != nil {
				ctxlog.From(ctx).Warn("Failed to close Cloud Storage client", "error", err)
			}
		}
		return logstore.NewCloudStorage(client, c.GCSBucket, c.GCSPrefix), closer, nil

	case c.LogDir != "":
		return logstore.NewFileSystem(c.LogDir), func() {}, nil

	default:
		return nil, func() {}, nil
	}
}
