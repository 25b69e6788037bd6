package logstore

import (
	"context"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// CloudStorage stores logs as gs://<bucket>/<prefix><job id>/<step>.log
type CloudStorage struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewCloudStorage creates a log store in a Cloud Storage bucket. prefix may be empty.
func NewCloudStorage(client *storage.Client, bucket, prefix string) *CloudStorage {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &CloudStorage{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// Save uploads data and returns the gs:// URL of the object
func (x *CloudStorage) Save(ctx context.Context, id types.JobID, step types.StepName, data []byte) (string, error) {
	name := x.prefix + objectName(id, step)

	w := x.client.Bucket(x.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write log object", goerr.V("bucket", x.bucket), goerr.V("object", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to upload log object", goerr.V("bucket", x.bucket), goerr.V("object", name))
	}

	return "gs://" + x.bucket + "/" + name, nil
}
