package notify

import (
	"context"
	"sync"

	"jobwatch/internal/domain/model"
)

// Memory is an in-process channel that records deliveries. It backs tests
// and the notification dry-run mode.
type Memory struct {
	name string

	mu   sync.Mutex
	sent []model.Posting
	// failURLs lists posting URLs whose delivery should fail.
	failURLs map[string]error
}

// NewMemory returns an empty in-memory channel.
func NewMemory(name string) *Memory {
	return &Memory{name: name, failURLs: make(map[string]error)}
}

func (m *Memory) Name() string { return m.name }

// FailOn makes future deliveries of the URL fail with err. A nil err
// clears the failure.
func (m *Memory) FailOn(url string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failURLs, url)
		return
	}
	m.failURLs[url] = err
}

// Send records the posting as delivered.
func (m *Memory) Send(_ context.Context, p model.Posting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.failURLs[p.URL]; ok {
		return err
	}
	m.sent = append(m.sent, p)
	return nil
}

// SendBatch delivers postings in order, stopping at the first failure.
func (m *Memory) SendBatch(ctx context.Context, postings []model.Posting) ([]model.Posting, error) {
	delivered := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if err := m.Send(ctx, p); err != nil {
			return delivered, err
		}
		delivered = append(delivered, p)
	}
	return delivered, nil
}

// Sent returns a copy of everything delivered so far.
func (m *Memory) Sent() []model.Posting {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Posting, len(m.sent))
	copy(out, m.sent)
	return out
}
