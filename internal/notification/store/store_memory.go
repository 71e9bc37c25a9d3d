package store

import (
	"context"
	"sort"
	"sync"

	"hemolink/internal/notification"
	"hemolink/pkg/domain"
)

// InMemoryStore keeps notifications in a map guarded by a mutex.
type InMemoryStore struct {
	mu            sync.RWMutex
	notifications map[domain.NotificationID]notification.Notification
	failCreates   bool
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{notifications: make(map[domain.NotificationID]notification.Notification)}
}

// FailCreates makes subsequent writes fail. Test hook for exercising the
// dispatch-failure path without a separate stub type.
func (s *InMemoryStore) FailCreates(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCreates = fail
}

func (s *InMemoryStore) Create(_ context.Context, n notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreates {
		return errInjected
	}
	s.notifications[n.ID] = n
	return nil
}

// CreateBatch writes all notifications or none.
func (s *InMemoryStore) CreateBatch(_ context.Context, batch []notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failCreates {
		return errInjected
	}
	for _, n := range batch {
		s.notifications[n.ID] = n
	}
	return nil
}

func (s *InMemoryStore) MarkResponded(_ context.Context, requestID domain.RequestID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.notifications {
		if n.Type == notification.TypeBloodRequest && n.BloodRequestID == requestID && n.UserID == userID {
			n.Responded = true
			n.Read = true
			s.notifications[id] = n
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteByRequestAndUser(_ context.Context, requestID domain.RequestID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.notifications {
		if n.Type == notification.TypeBloodRequest && n.BloodRequestID == requestID && n.UserID == userID {
			delete(s.notifications, id)
		}
	}
	return nil
}

func (s *InMemoryStore) DeleteByRequest(_ context.Context, requestID domain.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, n := range s.notifications {
		if n.BloodRequestID == requestID {
			delete(s.notifications, id)
		}
	}
	return nil
}

// PromptRecipients returns donors that already hold a blood_request prompt
// for this request. The dispatcher dedupes retried fan-outs on this set.
func (s *InMemoryStore) PromptRecipients(_ context.Context, requestID domain.RequestID) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.UserID
	for _, n := range s.notifications {
		if n.Type == notification.TypeBloodRequest && n.BloodRequestID == requestID {
			out = append(out, n.UserID)
		}
	}
	return out, nil
}

// ListByUser returns the user's notifications plus global ones, newest first.
func (s *InMemoryStore) ListByUser(_ context.Context, userID domain.UserID) ([]notification.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []notification.Notification
	for _, n := range s.notifications {
		if n.IsGlobal || n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// errInjected distinguishes deliberate test failures from real ones.
var errInjected = injectedError{}

type injectedError struct{}

func (injectedError) Error() string { return "injected notification store failure" }
