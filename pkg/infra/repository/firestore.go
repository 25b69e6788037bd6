package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultCollection is the Firestore collection holding job documents
const DefaultCollection = "jobs"

// Firestore stores one document per job, keyed by job ID
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore creates a Firestore-backed repository
func NewFirestore(client *firestore.Client, collection string) *Firestore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &Firestore{
		client:     client,
		collection: collection,
	}
}

func (x *Firestore) Put(ctx context.Context, job *model.Job) error {
	if _, err := x.client.Collection(x.collection).Doc(job.ID.String()).Set(ctx, job); err != nil {
		return goerr.Wrap(err, "failed to save job", goerr.V("job_id", job.ID))
	}
	return nil
}

func (x *Firestore) Get(ctx context.Context, id types.JobID) (*model.Job, error) {
	doc, err := x.client.Collection(x.collection).Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get job", goerr.V("job_id", id))
	}

	var job model.Job
	if err := doc.DataTo(&job); err != nil {
		return nil, goerr.Wrap(err, "failed to decode job", goerr.V("job_id", id))
	}
	return &job, nil
}

func (x *Firestore) List(ctx context.Context, limit int) ([]*model.Job, error) {
	q := x.client.Collection(x.collection).OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var jobs []*model.Job
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list jobs")
		}

		var job model.Job
		if err := doc.DataTo(&job); err != nil {
			return nil, goerr.Wrap(err, "failed to decode job", goerr.V("doc_id", doc.Ref.ID))
		}
		jobs = append(jobs, &job)
	}

	return jobs, nil
}
