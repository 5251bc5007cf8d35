package platesolve

import (
	"context"
	"time"
)

// Status is the lifecycle state of a plate-solve submission.
type Status string

const (
	StatusPending Status = "pending"
	StatusSolving Status = "solving"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusUnknown Status = "unknown"
)

// Done reports whether the submission will not change any more.
func (s Status) Done() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Submission tracks one uploaded image through the solver.
type Submission struct {
	SubID             int       `json:"sub_id"`
	Filename          string    `json:"filename"`
	SubmittedAt       time.Time `json:"submitted_at"`
	Status            Status    `json:"status"`
	JobID             *int      `json:"job_id"`
	AnnotatedImageURL *string   `json:"annotated_image_url"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// JobStatus is what the solver reports for a submission right now.
type JobStatus struct {
	Status            Status
	JobID             *int
	AnnotatedImageURL *string
}

// Annotation is an object the solver found in a solved image.
type Annotation struct {
	Names  []string `json:"names"`
	Type   string   `json:"type"`
	PixelX float64  `json:"pixelx"`
	PixelY float64  `json:"pixely"`
	Radius float64  `json:"radius"`
}

// Solver is the remote plate-solving API.
type Solver interface {
	Upload(ctx context.Context, filename string, image []byte) (int, error)
	SubmissionStatus(ctx context.Context, subID int) (JobStatus, error)
	Annotations(ctx context.Context, jobID int) ([]Annotation, error)
}

// Store is the contract the in-memory submission store satisfies.
type Store interface {
	Save(sub Submission)
	Get(subID int) (Submission, error)
	Pending() []Submission
}
