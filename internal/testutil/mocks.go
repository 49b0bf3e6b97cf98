// Package testutil provides shared test utilities, mocks, and fixtures
// for testing the mitaict-site server.
package testutil

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"mitaict-site/internal/domain"
)

// Common test errors
var (
	ErrMockNotImplemented = errors.New("mock function not implemented")
)

// MockAdminRepository implements domain.AdminRepository for testing
type MockAdminRepository struct {
	mu sync.RWMutex

	// Function overrides - set these to customize behavior
	CreateFunc         func(ctx context.Context, admin *domain.Admin) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Admin, error)
	GetByUsernameFunc  func(ctx context.Context, username string) (*domain.Admin, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*domain.Admin, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error

	// In-memory storage for simple tests
	Admins map[string]*domain.Admin

	// Sessions, when set, is revoked by UpdatePassword like the real repository.
	Sessions *MockSessionRepository
}

// NewMockAdminRepository creates a new MockAdminRepository with initialized maps
func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		Admins: make(map[string]*domain.Admin),
	}
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, admin)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Admins == nil {
		m.Admins = make(map[string]*domain.Admin)
	}
	for _, a := range m.Admins {
		if a.Username == admin.Username || strings.EqualFold(a.Email, admin.Email) {
			return domain.ErrAdminExists
		}
	}

	if admin.ID == "" {
		admin.ID = "admin-" + admin.Username
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now()
	}
	m.Admins[admin.ID] = admin
	return nil
}

func (m *MockAdminRepository) GetByID(ctx context.Context, id string) (*domain.Admin, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if admin, ok := m.Admins[id]; ok {
		return admin, nil
	}
	return nil, domain.ErrAdminNotFound
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, admin := range m.Admins {
		if admin.Username == username {
			return admin, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (m *MockAdminRepository) GetByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, admin := range m.Admins {
		if strings.EqualFold(admin.Email, email) {
			return admin, nil
		}
	}
	return nil, domain.ErrAdminNotFound
}

func (m *MockAdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	m.mu.Lock()
	admin, ok := m.Admins[id]
	if ok {
		admin.PasswordHash = passwordHash
	}
	m.mu.Unlock()

	if !ok {
		return domain.ErrAdminNotFound
	}
	if m.Sessions != nil {
		m.Sessions.DeleteByAdmin(id)
	}
	return nil
}

// MockSessionRepository implements domain.SessionRepository for testing
type MockSessionRepository struct {
	mu sync.RWMutex

	// Function overrides
	CreateFunc        func(ctx context.Context, session *domain.Session) error
	GetByTokenFunc    func(ctx context.Context, token string) (*domain.Session, error)
	DeleteFunc        func(ctx context.Context, token string) error
	DeleteExpiredFunc func(ctx context.Context) (int64, error)

	// In-memory storage
	Sessions map[string]*domain.Session
}

// NewMockSessionRepository creates a new MockSessionRepository with initialized maps
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		Sessions: make(map[string]*domain.Session),
	}
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Sessions == nil {
		m.Sessions = make(map[string]*domain.Session)
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.Sessions[session.Token] = session
	return nil
}

func (m *MockSessionRepository) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if session, ok := m.Sessions[token]; ok {
		if session.ExpiresAt.Before(time.Now()) {
			return nil, domain.ErrSessionExpired
		}
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionRepository) Delete(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.Sessions, token)
	return nil
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	if m.DeleteExpiredFunc != nil {
		return m.DeleteExpiredFunc(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	now := time.Now()
	for token, session := range m.Sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.Sessions, token)
			count++
		}
	}
	return count, nil
}

// DeleteByAdmin drops every session of adminID.
func (m *MockSessionRepository) DeleteByAdmin(adminID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for token, session := range m.Sessions {
		if session.AdminID == adminID {
			delete(m.Sessions, token)
		}
	}
}

// Count returns the number of stored sessions.
func (m *MockSessionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.Sessions)
}

// entityStore is the in-memory backing shared by the content mocks.
type entityStore[T any] struct {
	mu      sync.RWMutex
	items   map[string]*T
	order   []string
	prefix  string
	counter int
}

func newEntityStore[T any](prefix string) *entityStore[T] {
	return &entityStore[T]{items: make(map[string]*T), prefix: prefix}
}

func (s *entityStore[T]) nextID() string {
	s.counter++
	return s.prefix + "-" + strconv.Itoa(s.counter)
}

func (s *entityStore[T]) put(id string, item *T) {
	if _, ok := s.items[id]; !ok {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

func (s *entityStore[T]) list() []*T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*T, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.items[id])
	}
	return result
}

func (s *entityStore[T]) get(id string) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *entityStore[T]) remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.items, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// MockServiceRepository implements domain.ServiceRepository for testing
type MockServiceRepository struct {
	store *entityStore[domain.Service]

	ListFunc   func(ctx context.Context) ([]*domain.Service, error)
	CreateFunc func(ctx context.Context, service *domain.Service) error
	UpdateFunc func(ctx context.Context, service *domain.Service) error
	DeleteFunc func(ctx context.Context, id string) error
}

func NewMockServiceRepository() *MockServiceRepository {
	return &MockServiceRepository{store: newEntityStore[domain.Service]("service")}
}

func (m *MockServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.store.list(), nil
}

func (m *MockServiceRepository) GetByID(_ context.Context, id string) (*domain.Service, error) {
	return m.store.get(id)
}

func (m *MockServiceRepository) Create(ctx context.Context, service *domain.Service) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, service)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if service.ID == "" {
		service.ID = m.store.nextID()
	}
	service.CreatedAt = time.Now()
	service.UpdatedAt = service.CreatedAt
	m.store.put(service.ID, service)
	return nil
}

func (m *MockServiceRepository) Update(ctx context.Context, service *domain.Service) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, service)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	existing, ok := m.store.items[service.ID]
	if !ok {
		return domain.ErrNotFound
	}
	service.CreatedAt = existing.CreatedAt
	service.UpdatedAt = time.Now()
	m.store.put(service.ID, service)
	return nil
}

func (m *MockServiceRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return m.store.remove(id)
}

func (m *MockServiceRepository) Count(_ context.Context) (int, error) {
	return len(m.store.list()), nil
}

// MockSaasProductRepository implements domain.SaasProductRepository for testing
type MockSaasProductRepository struct {
	store *entityStore[domain.SaasProduct]

	ListFunc   func(ctx context.Context) ([]*domain.SaasProduct, error)
	CreateFunc func(ctx context.Context, product *domain.SaasProduct) error
}

func NewMockSaasProductRepository() *MockSaasProductRepository {
	return &MockSaasProductRepository{store: newEntityStore[domain.SaasProduct]("product")}
}

func (m *MockSaasProductRepository) List(ctx context.Context) ([]*domain.SaasProduct, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return m.store.list(), nil
}

func (m *MockSaasProductRepository) GetByID(_ context.Context, id string) (*domain.SaasProduct, error) {
	return m.store.get(id)
}

func (m *MockSaasProductRepository) Create(ctx context.Context, product *domain.SaasProduct) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, product)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if product.ID == "" {
		product.ID = m.store.nextID()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	m.store.put(product.ID, product)
	return nil
}

func (m *MockSaasProductRepository) Update(_ context.Context, product *domain.SaasProduct) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.items[product.ID]; !ok {
		return domain.ErrNotFound
	}
	product.UpdatedAt = time.Now()
	m.store.put(product.ID, product)
	return nil
}

func (m *MockSaasProductRepository) Delete(_ context.Context, id string) error {
	return m.store.remove(id)
}

func (m *MockSaasProductRepository) Count(_ context.Context) (int, error) {
	return len(m.store.list()), nil
}

// MockContactRepository implements domain.ContactRepository for testing
type MockContactRepository struct {
	store *entityStore[domain.Contact]

	CreateFunc func(ctx context.Context, contact *domain.Contact) error
	ListFunc   func(ctx context.Context) ([]*domain.Contact, error)
}

func NewMockContactRepository() *MockContactRepository {
	return &MockContactRepository{store: newEntityStore[domain.Contact]("contact")}
}

func (m *MockContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, contact)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if contact.ID == "" {
		contact.ID = m.store.nextID()
	}
	if contact.Status == "" {
		contact.Status = domain.ContactStatusNew
	}
	contact.CreatedAt = time.Now()
	m.store.put(contact.ID, contact)
	return nil
}

// List returns contacts newest first, like the real repository.
func (m *MockContactRepository) List(ctx context.Context) ([]*domain.Contact, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	contacts := m.store.list()
	sort.SliceStable(contacts, func(i, j int) bool { return contacts[i].CreatedAt.After(contacts[j].CreatedAt) })
	return contacts, nil
}

func (m *MockContactRepository) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	return m.store.get(id)
}

func (m *MockContactRepository) Update(_ context.Context, contact *domain.Contact) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	existing, ok := m.store.items[contact.ID]
	if !ok {
		return domain.ErrNotFound
	}
	contact.CreatedAt = existing.CreatedAt
	m.store.put(contact.ID, contact)
	return nil
}

func (m *MockContactRepository) Delete(_ context.Context, id string) error {
	return m.store.remove(id)
}

// MockChatSessionRepository implements domain.ChatSessionRepository for testing
type MockChatSessionRepository struct {
	store *entityStore[domain.ChatSession]

	GetFunc  func(ctx context.Context, id string) (*domain.ChatSession, error)
	SaveFunc func(ctx context.Context, session *domain.ChatSession) error
}

func NewMockChatSessionRepository() *MockChatSessionRepository {
	return &MockChatSessionRepository{store: newEntityStore[domain.ChatSession]("chat")}
}

func (m *MockChatSessionRepository) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	session, err := m.store.get(id)
	if err != nil {
		return nil, err
	}
	clone := *session
	clone.Messages = append([]domain.ChatMessage(nil), session.Messages...)
	return &clone, nil
}

func (m *MockChatSessionRepository) Save(ctx context.Context, session *domain.ChatSession) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, session)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if session.ID == "" {
		session.ID = m.store.nextID()
	}
	now := time.Now()
	if existing, ok := m.store.items[session.ID]; ok {
		session.CreatedAt = existing.CreatedAt
	} else {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	clone := *session
	clone.Messages = append([]domain.ChatMessage(nil), session.Messages...)
	m.store.put(session.ID, &clone)
	return nil
}

func (m *MockChatSessionRepository) List(_ context.Context) ([]*domain.ChatSession, error) {
	return m.store.list(), nil
}

func (m *MockChatSessionRepository) Delete(_ context.Context, id string) error {
	return m.store.remove(id)
}

// MockMeetingRequestRepository implements domain.MeetingRequestRepository for testing
type MockMeetingRequestRepository struct {
	store *entityStore[domain.MeetingRequest]

	CreateFunc func(ctx context.Context, req *domain.MeetingRequest) error
}

func NewMockMeetingRequestRepository() *MockMeetingRequestRepository {
	return &MockMeetingRequestRepository{store: newEntityStore[domain.MeetingRequest]("meeting")}
}

func (m *MockMeetingRequestRepository) Create(ctx context.Context, req *domain.MeetingRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if req.ID == "" {
		req.ID = m.store.nextID()
	}
	if req.Status == "" {
		req.Status = domain.MeetingStatusPending
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	m.store.put(req.ID, req)
	return nil
}

func (m *MockMeetingRequestRepository) List(_ context.Context) ([]*domain.MeetingRequest, error) {
	return m.store.list(), nil
}

func (m *MockMeetingRequestRepository) GetByID(_ context.Context, id string) (*domain.MeetingRequest, error) {
	return m.store.get(id)
}

func (m *MockMeetingRequestRepository) UpdateStatus(_ context.Context, id, status, notes string) (*domain.MeetingRequest, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	req, ok := m.store.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	req.Status = status
	req.AdminNotes = notes
	req.UpdatedAt = time.Now()
	return req, nil
}

func (m *MockMeetingRequestRepository) Delete(_ context.Context, id string) error {
	return m.store.remove(id)
}

// MockSettingsRepository implements domain.SettingsRepository for testing
type MockSettingsRepository struct {
	mu sync.RWMutex

	GetAboutFunc func(ctx context.Context) (*domain.AboutContent, error)

	About        *domain.AboutContent
	Integrations *domain.SocialIntegrations
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{}
}

func (m *MockSettingsRepository) GetAbout(ctx context.Context) (*domain.AboutContent, error) {
	if m.GetAboutFunc != nil {
		return m.GetAboutFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.About == nil {
		return nil, domain.ErrNotFound
	}
	about := *m.About
	return &about, nil
}

func (m *MockSettingsRepository) SaveAbout(_ context.Context, about *domain.AboutContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	about.UpdatedAt = time.Now()
	stored := *about
	m.About = &stored
	return nil
}

func (m *MockSettingsRepository) GetIntegrations(_ context.Context) (*domain.SocialIntegrations, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.Integrations == nil {
		return nil, domain.ErrNotFound
	}
	integrations := *m.Integrations
	return &integrations, nil
}

func (m *MockSettingsRepository) SaveIntegrations(_ context.Context, integrations *domain.SocialIntegrations) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *integrations
	m.Integrations = &stored
	return nil
}

// MockEventPublisher implements domain.EventPublisher for testing
type MockEventPublisher struct {
	mu sync.Mutex

	PublishFunc func(ctx context.Context, event *domain.Event) error

	Events []*domain.Event
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *domain.Event) error {
	m.mu.Lock()
	m.Events = append(m.Events, event)
	m.mu.Unlock()

	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

// Types returns the published event types in order.
func (m *MockEventPublisher) Types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, len(m.Events))
	for i, e := range m.Events {
		types[i] = e.Type
	}
	return types
}
