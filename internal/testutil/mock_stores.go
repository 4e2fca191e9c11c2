// Package testutil holds hand-written in-memory fakes shared across the
// gateway's test suites, in the teacher's style of a thread-safe fake per
// storage interface rather than a mocking framework.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/monday-agents/gateway/internal/store"
)

// MockTokenStore is a thread-safe in-memory store.TokenStore.
type MockTokenStore struct {
	mu     sync.Mutex
	tokens map[string]store.TokenRecord

	UpsertErr error
	GetErr    error
	DeleteErr error

	UpsertCalls int
	DeleteCalls int
}

// NewMockTokenStore creates an empty MockTokenStore.
func NewMockTokenStore() *MockTokenStore {
	return &MockTokenStore{tokens: make(map[string]store.TokenRecord)}
}

func (m *MockTokenStore) Upsert(_ context.Context, rec store.TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.tokens[rec.SubjectID] = rec
	return nil
}

func (m *MockTokenStore) Get(_ context.Context, subjectID string) (store.TokenRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return store.TokenRecord{}, false, m.GetErr
	}
	rec, ok := m.tokens[subjectID]
	return rec, ok, nil
}

func (m *MockTokenStore) Delete(_ context.Context, subjectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.tokens, subjectID)
	return nil
}

func (m *MockTokenStore) Close() error { return nil }

// MockMeetingStore is a thread-safe in-memory store.MeetingStore.
type MockMeetingStore struct {
	mu       sync.Mutex
	meetings map[string]store.MeetingRecord
}

// NewMockMeetingStore creates an empty MockMeetingStore.
func NewMockMeetingStore() *MockMeetingStore {
	return &MockMeetingStore{meetings: make(map[string]store.MeetingRecord)}
}

func (m *MockMeetingStore) Insert(_ context.Context, rec store.MeetingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.meetings[rec.EventID]; exists {
		return nil
	}
	m.meetings[rec.EventID] = rec
	return nil
}

func (m *MockMeetingStore) IsProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.meetings[eventID]
	return ok, nil
}

func (m *MockMeetingStore) UpdateStatus(_ context.Context, eventID string, status store.MeetingStatus, taskIDs string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.meetings[eventID]
	if !ok {
		return fmt.Errorf("meeting %s not found", eventID)
	}
	rec.Status = status
	rec.TaskIDs = taskIDs
	m.meetings[eventID] = rec
	return nil
}

func (m *MockMeetingStore) Get(_ context.Context, eventID string) (store.MeetingRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.meetings[eventID]
	return rec, ok, nil
}

func (m *MockMeetingStore) Close() error { return nil }
