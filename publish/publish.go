// Package publish writes generated files to the site repository.
package publish

import (
	"context"
	"fmt"
)

type Status int

const (
	Created Status = iota
	Updated
	Conflict
	Failed
)

func (s Status) String() string {
	switch s {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Conflict:
		return "conflict"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of publishing a single file. Revision is the revision of
// the file before it was updated, if there was one.
type Result struct {
	Path     string
	Status   Status
	Revision string
	Err      error
}

type Publisher interface {
	Publish(ctx context.Context, path string, content []byte) Result
}

func (r Result) OK() bool {
	return r.Status == Created || r.Status == Updated
}

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%v  %v (%v)", r.Path, r.Status, r.Err)
	}

	return fmt.Sprintf("%v  %v", r.Path, r.Status)
}
