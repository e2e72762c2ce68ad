package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/virgantara/yii2-basic-template/internal/core/domain"
	"github.com/virgantara/yii2-basic-template/internal/core/port"
	"github.com/virgantara/yii2-basic-template/internal/repository"
)

type userRepoMock struct {
	mu        sync.Mutex
	byID      map[string]domain.User
	createErr error
	lastLogin map[string]time.Time
}

func newUserRepoMock(users ...domain.User) *userRepoMock {
	m := &userRepoMock{
		byID:      make(map[string]domain.User),
		lastLogin: make(map[string]time.Time),
	}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *userRepoMock) Create(_ context.Context, user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.byID {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrConflict
		}
	}
	m.byID[user.ID] = user
	return nil
}

func (m *userRepoMock) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user, ok := m.byID[id]; ok {
		u := user
		return &u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.byID {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *userRepoMock) UpdateStatus(_ context.Context, id string, status domain.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Status = status
	m.byID[id] = user
	return nil
}

func (m *userRepoMock) UpdatePassword(_ context.Context, id string, hash string, algo string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	user.PasswordAlgo = algo
	user.LastPasswordChange = changedAt
	m.byID[id] = user
	return nil
}

func (m *userRepoMock) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	m.lastLogin[id] = at
	return nil
}

type tokenRepoMock struct {
	mu      sync.Mutex
	byID    map[string]domain.ActionToken
	created int
}

func newTokenRepoMock() *tokenRepoMock {
	return &tokenRepoMock{byID: make(map[string]domain.ActionToken)}
}

func (m *tokenRepoMock) Create(_ context.Context, token domain.ActionToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[token.ID] = token
	m.created++
	return nil
}

func (m *tokenRepoMock) GetByHash(_ context.Context, hash string) (*domain.ActionToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, token := range m.byID {
		if token.TokenHash == hash {
			t := token
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *tokenRepoMock) Consume(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	token, ok := m.byID[id]
	if !ok || token.UsedAt != nil || token.RevokedAt != nil {
		return repository.ErrNotFound
	}
	token.UsedAt = &at
	m.byID[id] = token
	return nil
}

func (m *tokenRepoMock) RevokeLiveForUser(_ context.Context, userID string, purpose domain.TokenPurpose, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	revoked := 0
	for id, token := range m.byID {
		if token.UserID != userID || token.Purpose != purpose {
			continue
		}
		if token.UsedAt != nil || token.RevokedAt != nil {
			continue
		}
		token.RevokedAt = &at
		m.byID[id] = token
		revoked++
	}
	return revoked, nil
}

func (m *tokenRepoMock) live(purpose domain.TokenPurpose) []domain.ActionToken {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActionToken
	for _, token := range m.byID {
		if token.Purpose == purpose && token.UsedAt == nil && token.RevokedAt == nil {
			out = append(out, token)
		}
	}
	return out
}

type sessionStoreMock struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	notices  map[string]domain.Notice
	returns  map[string]string
	startErr error
}

func newSessionStoreMock() *sessionStoreMock {
	return &sessionStoreMock{
		sessions: make(map[string]domain.Session),
		notices:  make(map[string]domain.Notice),
		returns:  make(map[string]string),
	}
}

func (m *sessionStoreMock) Create(_ context.Context, session domain.Session, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return m.startErr
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *sessionStoreMock) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		s := session
		return &s, nil
	}
	return nil, repository.ErrNotFound
}

func (m *sessionStoreMock) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	delete(m.notices, id)
	delete(m.returns, id)
	return nil
}

func (m *sessionStoreMock) SetNotice(_ context.Context, sessionID string, notice domain.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices[sessionID] = notice
	return nil
}

func (m *sessionStoreMock) PopNotice(_ context.Context, sessionID string) (*domain.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if notice, ok := m.notices[sessionID]; ok {
		delete(m.notices, sessionID)
		n := notice
		return &n, nil
	}
	return nil, nil
}

func (m *sessionStoreMock) SetReturnURL(_ context.Context, sessionID string, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.returns[sessionID] = url
	return nil
}

func (m *sessionStoreMock) PopReturnURL(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	url := m.returns[sessionID]
	delete(m.returns, sessionID)
	return url, nil
}

type mailerMock struct {
	mu             sync.Mutex
	activationErr  error
	resetErr       error
	contactErr     error
	activations    []string
	resets         []string
	contacts       []port.ContactMessage
	lastActivation string
	lastReset      string
}

func (m *mailerMock) SendAccountActivation(_ context.Context, to, _, activationURL string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.activationErr != nil {
		return m.activationErr
	}
	m.activations = append(m.activations, to)
	m.lastActivation = activationURL
	return nil
}

func (m *mailerMock) SendPasswordReset(_ context.Context, to, _, resetURL string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetErr != nil {
		return m.resetErr
	}
	m.resets = append(m.resets, to)
	m.lastReset = resetURL
	return nil
}

func (m *mailerMock) SendContact(_ context.Context, msg port.ContactMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.contactErr != nil {
		return m.contactErr
	}
	m.contacts = append(m.contacts, msg)
	return nil
}

type publisherMock struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	activated  []domain.AccountActivatedEvent
	requested  []domain.PasswordResetRequestedEvent
	changed    []domain.PasswordChangedEvent
	contacts   []domain.ContactMessageEvent
}

func (m *publisherMock) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, event)
	return nil
}

func (m *publisherMock) PublishAccountActivated(_ context.Context, event domain.AccountActivatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activated = append(m.activated, event)
	return nil
}

func (m *publisherMock) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requested = append(m.requested, event)
	return nil
}

func (m *publisherMock) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = append(m.changed, event)
	return nil
}

func (m *publisherMock) PublishContactMessage(_ context.Context, event domain.ContactMessageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts = append(m.contacts, event)
	return nil
}

// resetterMock wires token consume and password update through the mocks
// without a real transaction.
type resetterMock struct {
	users  *userRepoMock
	tokens *tokenRepoMock
	err    error
}

func (m *resetterMock) ConsumeAndSetPassword(ctx context.Context, tokenID, userID, passwordHash, passwordAlgo string, at time.Time) error {
	if m.err != nil {
		return m.err
	}
	if err := m.tokens.Consume(ctx, tokenID, at); err != nil {
		return err
	}
	return m.users.UpdatePassword(ctx, userID, passwordHash, passwordAlgo, at)
}
