package platesolve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// ErrNoImage is returned when an upload carries no bytes.
var ErrNoImage = errors.New("no image file in request")

// Service uploads images to the solver and keeps their submissions current.
type Service struct {
	solver Solver
	store  Store

	// Now stamps submissions; replaced in tests.
	Now func() time.Time
}

// NewService creates a new Service.
func NewService(solver Solver, store Store) *Service {
	return &Service{
		solver: solver,
		store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Upload sends the image for solving and starts tracking it.
func (s *Service) Upload(ctx context.Context, filename string, image []byte) (Submission, error) {
	if len(image) == 0 {
		return Submission{}, ErrNoImage
	}

	subID, err := s.solver.Upload(ctx, filename, image)
	if err != nil {
		log.Printf("ERROR: upload of %s failed: %v", filename, err)
		return Submission{}, err
	}

	now := s.Now()
	sub := Submission{
		SubID:       subID,
		Filename:    filename,
		SubmittedAt: now,
		Status:      StatusPending,
		UpdatedAt:   now,
	}
	s.store.Save(sub)
	log.Printf("INFO: uploaded %s as submission %d", filename, subID)
	return sub, nil
}

// Status asks the solver about a submission and records the answer.
// Submissions made by other processes are tracked from here on.
func (s *Service) Status(ctx context.Context, subID int) (Submission, error) {
	sub, err := s.store.Get(subID)
	if err != nil {
		sub = Submission{SubID: subID, SubmittedAt: s.Now()}
	}
	if sub.Status.Done() {
		return sub, nil
	}

	st, err := s.solver.SubmissionStatus(ctx, subID)
	if err != nil {
		return Submission{}, fmt.Errorf("submission %d: %w", subID, err)
	}

	sub.Status = st.Status
	sub.JobID = st.JobID
	sub.AnnotatedImageURL = st.AnnotatedImageURL
	sub.UpdatedAt = s.Now()
	s.store.Save(sub)
	return sub, nil
}

// Results returns the annotations of a solved job.
func (s *Service) Results(ctx context.Context, jobID int) ([]Annotation, error) {
	return s.solver.Annotations(ctx, jobID)
}

// RefreshPending polls the solver for every unfinished submission
// concurrently. Failures are logged and retried on the next run.
func (s *Service) RefreshPending(ctx context.Context) int {
	pending := s.store.Pending()
	log.Printf("DEBUG: RefreshPending called with %d submissions", len(pending))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
	)
	for _, sub := range pending {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()

			updated, err := s.Status(ctx, sub.SubID)
			if err != nil {
				log.Printf("status refresh failed for submission %d: %v", sub.SubID, err)
				return
			}
			if updated.Status != sub.Status {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return changed
}
