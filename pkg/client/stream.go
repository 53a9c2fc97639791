package client

import (
	"context"

	"github.com/pipemeta/pipemeta/pkg/entities"
)

const defaultStreamBatchSize = 100

// ModelHealthStream pages through a schedule's model health in batches.
// It is lazy and finite: each Next call fetches one page, and the stream
// ends when a page comes back short. Streams are not restartable.
type ModelHealthStream struct {
	ctx       context.Context
	client    *MetadataClient
	schedule  string
	batchSize int
	offset    int
	batch     []*entities.ModelHealth
	err       error
	done      bool
}

// GetModelHealthStream opens a batch stream over the schedule's models in
// (executed_at DESC, unique_id) order. Concatenating every batch yields the
// same rows, in the same order, as the underlying page query.
func (c *MetadataClient) GetModelHealthStream(
	ctx context.Context, scheduleName string, batchSize int,
) *ModelHealthStream {
	if batchSize <= 0 {
		batchSize = defaultStreamBatchSize
	}

	return &ModelHealthStream{
		ctx:       ctx,
		client:    c,
		schedule:  scheduleName,
		batchSize: batchSize,
	}
}

// Next advances to the next batch, returning false when the stream is
// exhausted or failed. The batch is available via Batch until the next call.
func (s *ModelHealthStream) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	if err := s.client.ensureLoaded(s.ctx, s.schedule, false); err != nil {
		s.err = err
		return false
	}

	page, contractError := s.client.store.GetModelHealthPage(s.schedule, s.batchSize, s.offset)
	if contractError != nil {
		s.err = contractError
		return false
	}

	if len(page) < s.batchSize {
		s.done = true
	}
	if len(page) == 0 {
		return false
	}

	s.offset += len(page)
	s.batch = page

	return true
}

// Batch returns the rows fetched by the last successful Next call.
func (s *ModelHealthStream) Batch() []*entities.ModelHealth {
	return s.batch
}

// Err reports the error that terminated the stream, if any.
func (s *ModelHealthStream) Err() error {
	return s.err
}
