// Package repository stores job records.
package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/lintgate/pkg/domain/model"
	"github.com/m-mizutani/lintgate/pkg/domain/types"
)

// Memory keeps jobs in process memory. Records are copied on the way in and out.
type Memory struct {
	mu   sync.RWMutex
	jobs map[types.JobID]*model.Job
}

// NewMemory creates an empty in-memory repository
func NewMemory() *Memory {
	return &Memory{
		jobs: make(map[types.JobID]*model.Job),
	}
}

func (x *Memory) Put(ctx context.Context, job *model.Job) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.jobs[job.ID] = job.Copy()
	return nil
}

func (x *Memory) Get(ctx context.Context, id types.JobID) (*model.Job, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	job, ok := x.jobs[id]
	if !ok {
		return nil, nil
	}
	return job.Copy(), nil
}

func (x *Memory) List(ctx context.Context, limit int) ([]*model.Job, error) {
	x.mu.RLock()
	jobs := make([]*model.Job, 0, len(x.jobs))
	for _, job := range x.jobs {
		jobs = append(jobs, job.Copy())
	}
	x.mu.RUnlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID > jobs[j].ID
		}
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}
