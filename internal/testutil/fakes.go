package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/WankioM/property-qr/internal/models"
)

// Encoder is a models.ImageEncoder that records calls.
type Encoder struct {
	mu    sync.Mutex
	calls int
	// Err is returned by Encode when set.
	Err error
}

func (e *Encoder) Encode(payload string, _ models.QrGenerationSettings) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.Err != nil {
		return nil, e.Err
	}
	return []byte("png:" + payload), nil
}

func (e *Encoder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Store is an in-memory models.ObjectStore with injectable failures.
type Store struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    int
	// PutErr fails every Put when set.
	PutErr error
	// FailKeys fails Put for specific keys.
	FailKeys map[string]error
	// DeleteErr fails every Delete when set.
	DeleteErr error
}

func NewStore() *Store {
	return &Store{objects: make(map[string][]byte), FailKeys: make(map[string]error)}
}

func (s *Store) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.PutErr != nil {
		return "", s.PutErr
	}
	if err, ok := s.FailKeys[key]; ok {
		return "", err
	}
	s.objects[key] = append([]byte(nil), data...)
	return s.PublicURL(key), nil
}

func (s *Store) Delete(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.DeleteErr != nil {
		return false, s.DeleteErr
	}
	_, ok := s.objects[key]
	delete(s.objects, key)
	return ok, nil
}

func (s *Store) PublicURL(key string) string {
	return fmt.Sprintf("https://cdn.test/%s", key)
}

func (s *Store) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.objects[key]
	return b, ok
}

func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

// Queue is a models.TaskQueue that runs tasks inline.
type Queue struct {
	mu      sync.Mutex
	names   []string
	pending []func(ctx context.Context) error
	// Reject makes Submit refuse every task.
	Reject bool
	// Hold keeps submitted tasks until Flush is called.
	Hold bool
}

func (q *Queue) Submit(name string, task func(ctx context.Context) error) bool {
	q.mu.Lock()
	if q.Reject {
		q.mu.Unlock()
		return false
	}
	q.names = append(q.names, name)
	if q.Hold {
		q.pending = append(q.pending, task)
		q.mu.Unlock()
		return true
	}
	q.mu.Unlock()
	_ = task(context.Background())
	return true
}

// Flush runs held tasks in submission order, including any they submit.
func (q *Queue) Flush() {
	q.mu.Lock()
	q.Hold = false
	pending := q.pending
	q.pending = nil
	q.mu.Unlock()
	for _, task := range pending {
		_ = task(context.Background())
	}
}

func (q *Queue) Names() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.names...)
}

// Recorder is a models.ScanRecorder that keeps what it was given.
type Recorder struct {
	mu     sync.Mutex
	next   int
	Scans  []models.ScanInput
	Failed []models.FailedScanInput
	Clicks []string
}

func (r *Recorder) TrackScan(in models.ScanInput) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.ScanID == "" {
		r.next++
		in.ScanID = fmt.Sprintf("scan-%d", r.next)
	}
	r.Scans = append(r.Scans, in)
	return in.ScanID
}

func (r *Recorder) TrackFailedScan(in models.FailedScanInput) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in.ScanID == "" {
		r.next++
		in.ScanID = fmt.Sprintf("scan-%d", r.next)
	}
	r.Failed = append(r.Failed, in)
	return in.ScanID
}

func (r *Recorder) TrackClick(propertyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Clicks = append(r.Clicks, propertyID)
}

// Notifier collects notifications.
type Notifier struct {
	mu       sync.Mutex
	Subjects []string
}

func (n *Notifier) Notify(_ context.Context, subject, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Subjects = append(n.Subjects, subject)
}
