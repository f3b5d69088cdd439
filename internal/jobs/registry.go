package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pagecurl-labs/flipbookd/internal/domain"
)

// Registry holds submitted conversion jobs between the upload request and the
// stream request that consumes them. Jobs live in process memory only: they
// are claimed at most once and evicted when left unclaimed past the TTL.
type Registry struct {
	mu     sync.Mutex
	jobs   map[string]domain.Job
	ttl    time.Duration
	logger *slog.Logger
}

// NewRegistry creates an empty registry. Jobs unclaimed after ttl are removed
// by the janitor started with Start.
func NewRegistry(ttl time.Duration, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		jobs:   make(map[string]domain.Job),
		ttl:    ttl,
		logger: logger,
	}
}

// Submit validates a job, assigns it a fresh token and stores it for a later
// Claim. The returned token is the only handle to the job.
func (r *Registry) Submit(job domain.Job) (string, error) {
	if err := validate(job); err != nil {
		return "", err
	}

	job.Token = uuid.New().String()
	job.SubmittedAt = time.Now()

	r.mu.Lock()
	r.jobs[job.Token] = job
	r.mu.Unlock()

	return job.Token, nil
}

// Claim removes the job for token and returns it. The removal happens under
// the registry lock, so concurrent claims of the same token yield the job to
// exactly one caller; every other caller gets a not-found error.
func (r *Registry) Claim(token string) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[token]
	if !ok {
		return domain.Job{}, domain.NotFoundError("job not found or already processed", nil)
	}
	delete(r.jobs, token)
	return job, nil
}

// Len returns the number of unclaimed jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Start runs the eviction janitor until ctx is cancelled.
func (r *Registry) Start(ctx context.Context) {
	interval := r.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.evictExpired(time.Now().Add(-r.ttl)); n > 0 {
				r.logger.Info("Evicted unclaimed jobs.", "count", n)
			}
		}
	}
}

// evictExpired removes jobs submitted before cutoff and reports how many.
func (r *Registry) evictExpired(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	for token, job := range r.jobs {
		if job.SubmittedAt.Before(cutoff) {
			delete(r.jobs, token)
			n++
		}
	}
	return n
}

// validate enforces the submission contract. The messages are surfaced
// verbatim to upload clients.
func validate(job domain.Job) error {
	if len(job.Data) == 0 || job.FileName == "" {
		return domain.ValidationError("No PDF file uploaded.", nil)
	}
	if job.MainCategory == "" || job.Subcategory == "" {
		return domain.ValidationError("Missing main category or subcategory.", nil)
	}
	if job.Tier == domain.TierPending && job.OwnerUID == "" {
		return domain.ValidationError("Missing user ID.", nil)
	}
	return nil
}
