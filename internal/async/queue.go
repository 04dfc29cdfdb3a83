package async

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Enqueue after Shutdown.
var ErrClosed = errors.New("queue is shutting down")

// Job is one file waiting to be processed.
type Job struct {
	Path        string
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Processor handles one file. *rateconf.Service satisfies it.
type Processor interface {
	ProcessFile(ctx context.Context, path string) error
}

// ResultHandler is called after each job with the processing error, if any.
type ResultHandler func(job Job, err error)
