package service

import (
	"context"
	"sync"
	"time"

	"seraphina/events"
	"seraphina/models"

	"github.com/stretchr/testify/mock"
)

// MockCreditRepository is a mock implementation of CreditRepository
type MockCreditRepository struct {
	mock.Mock
}

func (m *MockCreditRepository) Get(ctx context.Context, userID string) (*models.UserCredits, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserCredits), args.Error(1)
}

func (m *MockCreditRepository) Put(ctx context.Context, userID string, credits *models.UserCredits) error {
	args := m.Called(ctx, userID, credits)
	return args.Error(0)
}

func (m *MockCreditRepository) Delete(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockCreditHistoryRepository is a mock implementation of CreditHistoryRepository
type MockCreditHistoryRepository struct {
	mock.Mock
}

func (m *MockCreditHistoryRepository) Record(ctx context.Context, history *models.CreditHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockCreditHistoryRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.CreditHistory, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CreditHistory), args.Error(1)
}

// MockChatLogRepository is a mock implementation of ChatLogRepository
type MockChatLogRepository struct {
	mock.Mock
}

func (m *MockChatLogRepository) Append(ctx context.Context, entry *models.ChatLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockChatLogRepository) GetRecentByUser(ctx context.Context, userID string, limit int) ([]*models.ChatLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ChatLog), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// RecordingEventPublisher captures published events so tests can assert
// on what a unit of work would have flushed at commit
type RecordingEventPublisher struct {
	mu     sync.Mutex
	Events []events.Event
}

func (p *RecordingEventPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

func (p *RecordingEventPublisher) Published() []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Event, len(p.Events))
	copy(out, p.Events)
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repository
// accessors return whatever SetRepositories injected rather than going
// through testify expectations.
type MockUnitOfWork struct {
	mock.Mock

	creditRepo        CreditRepository
	creditHistoryRepo CreditHistoryRepository
	chatLogRepo       ChatLogRepository
	eventBus          EventPublisher
}

// SetRepositories configures the repositories returned by the accessors
func (m *MockUnitOfWork) SetRepositories(credit CreditRepository, history CreditHistoryRepository, chatLog ChatLogRepository) {
	m.creditRepo = credit
	m.creditHistoryRepo = history
	m.chatLogRepo = chatLog
}

// SetEventBus configures the publisher returned by EventBus
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) CreditRepository() CreditRepository {
	return m.creditRepo
}

func (m *MockUnitOfWork) CreditHistoryRepository() CreditHistoryRepository {
	return m.creditHistoryRepo
}

func (m *MockUnitOfWork) ChatLogRepository() ChatLogRepository {
	return m.chatLogRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		m.eventBus = &RecordingEventPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockChatCompleter is a mock implementation of ChatCompleter
type MockChatCompleter struct {
	mock.Mock
}

func (m *MockChatCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockImageGenerator is a mock implementation of ImageGenerator
type MockImageGenerator struct {
	mock.Mock
}

func (m *MockImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockImageGenerator) Fetch(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockBlobStore is a mock implementation of BlobStore
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, name, contentType, data)
	return args.String(0), args.Error(1)
}

func (m *MockBlobStore) ListFileNames(ctx context.Context, prefix string) ([]string, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockBlobStore) PresignURL(ctx context.Context, fileName string, validFor time.Duration) (string, error) {
	args := m.Called(ctx, fileName, validFor)
	return args.String(0), args.Error(1)
}
