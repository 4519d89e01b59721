package publish

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"roast-pipeline/config"
	"roast-pipeline/internal/ledger"
)

// VideoUploader is the upload dependency the scheduler drives
type VideoUploader interface {
	Upload(ctx context.Context, videoFile string, meta Metadata) (string, error)
}

// DiscoveryRunner refills the queue; wired to the producer's batch run
type DiscoveryRunner func(ctx context.Context) error

// Scheduler runs the daily publishing cadence: queue drains at the
// configured upload times and a nightly discovery run to refill the queue.
// When an upload hits the API quota, all uploads pause until shortly after
// the next daily quota reset; pending entries stay pending for retry.
type Scheduler struct {
	cfg      *config.Config
	store    *ledger.Store
	uploader VideoUploader
	discover DiscoveryRunner
	now      func() time.Time
	rng      *rand.Rand

	mu         sync.Mutex
	pauseUntil time.Time
}

func NewScheduler(cfg *config.Config, store *ledger.Store, uploader VideoUploader, discover DiscoveryRunner) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		store:    store,
		uploader: uploader,
		discover: discover,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run installs the cron entries and blocks until ctx is cancelled
func (s *Scheduler) Run(ctx context.Context) error {
	c := cron.New()

	for _, spec := range s.cfg.Schedule.UploadCrons {
		spec := spec
		if _, err := c.AddFunc(spec, func() { s.UploadNext(ctx) }); err != nil {
			return fmt.Errorf("bad upload cron %q: %w", spec, err)
		}
	}
	if s.discover != nil && s.cfg.Schedule.DiscoveryCron != "" {
		if _, err := c.AddFunc(s.cfg.Schedule.DiscoveryCron, func() {
			log.Println("[scheduler] Discovery: finding clips for tomorrow...")
			if err := s.discover(ctx); err != nil {
				log.Printf("[scheduler] Discovery failed: %v", err)
			}
		}); err != nil {
			return fmt.Errorf("bad discovery cron %q: %w", s.cfg.Schedule.DiscoveryCron, err)
		}
	}

	c.Start()
	log.Printf("[scheduler] Schedule active: %d upload slot(s) per day", len(s.cfg.Schedule.UploadCrons))

	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return ctx.Err()
}

// UploadNext drains one pending entry from the queue. Quota exhaustion
// pauses future triggers until 00:05 the next day; other failures mark the
// entry FAILED and move on.
func (s *Scheduler) UploadNext(ctx context.Context) {
	s.mu.Lock()
	paused := s.now().Before(s.pauseUntil)
	until := s.pauseUntil
	s.mu.Unlock()
	if paused {
		log.Printf("[scheduler] Uploads paused until %s", until.Format(time.RFC3339))
		return
	}

	entry, err := s.store.NextPending()
	if err != nil {
		log.Printf("[scheduler] Queue lookup failed: %v", err)
		return
	}
	if entry == nil {
		return
	}

	log.Printf("[scheduler] Uploading queue entry %d (%s)", entry.ID, entry.StreamerName)

	meta := GenerateMetadata(entry.StreamerName, s.rng)
	videoID, err := s.uploader.Upload(ctx, entry.FilePath, meta)
	if err != nil {
		if errors.Is(err, ErrQuotaExceeded) {
			s.pauseForQuota()
			return
		}
		log.Printf("[scheduler] Upload failed: %v", err)
		if err := s.store.MarkFailed(entry.ID); err != nil {
			log.Printf("[scheduler] Could not mark entry %d failed: %v", entry.ID, err)
		}
		return
	}

	if err := s.store.MarkUploaded(entry.ID, videoID, meta.TagStrategy); err != nil {
		log.Printf("[scheduler] Could not mark entry %d uploaded: %v", entry.ID, err)
	}

	if s.cfg.Upload.DeleteAfterUp {
		if err := os.Remove(entry.FilePath); err != nil {
			log.Printf("[scheduler] Could not delete %s: %v", entry.FilePath, err)
		} else {
			log.Printf("[scheduler] Deleted output: %s", entry.FilePath)
		}
	}
}

// pauseForQuota holds uploads until 00:05 tomorrow; the entry stays PENDING
// so the first trigger after the reset retries it
func (s *Scheduler) pauseForQuota() {
	n := s.now()
	next := time.Date(n.Year(), n.Month(), n.Day(), 0, 5, 0, 0, n.Location()).AddDate(0, 0, 1)
	s.mu.Lock()
	s.pauseUntil = next
	s.mu.Unlock()
	log.Printf("[scheduler] Quota exceeded. Pausing uploads until %s", next.Format(time.RFC3339))
}
