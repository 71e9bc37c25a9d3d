package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"hemolink/internal/request/models"
	"hemolink/pkg/domain"
)

// InMemoryStore keeps requests in a map guarded by a mutex. Used by unit
// tests and local runs; the mutex gives the same per-donor upsert atomicity
// the PostgreSQL store provides transactionally.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[domain.RequestID]*models.BloodRequest
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{requests: make(map[domain.RequestID]*models.BloodRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, req *models.BloodRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := cloneRequest(req)
	s.requests[req.ID] = cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.RequestID) (*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(req), nil
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]*models.BloodRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.BloodRequest
	for _, req := range s.requests {
		if filter.Matches(req) {
			out = append(out, cloneRequest(req))
		}
	}
	// Newest first, matching the PostgreSQL ORDER BY.
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) UpsertDonorResponse(_ context.Context, id domain.RequestID, resp models.DonorResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.UpsertResponse(resp, time.Now())
	return nil
}

func (s *InMemoryStore) UpdateStatus(_ context.Context, id domain.RequestID, status models.RequestStatus, fulfilled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	req.Fulfilled = fulfilled
	req.UpdatedAt = time.Now()
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.RequestID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.requests, id)
	return nil
}

func cloneRequest(req *models.BloodRequest) *models.BloodRequest {
	cp := *req
	if req.RequesterID != nil {
		rid := *req.RequesterID
		cp.RequesterID = &rid
	}
	cp.DonorResponses = make([]models.DonorResponse, len(req.DonorResponses))
	copy(cp.DonorResponses, req.DonorResponses)
	return &cp
}
