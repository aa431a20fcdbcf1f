package store

import (
	"sync"

	"microblog/pkg/domain"
)

// MemoryStore keeps accounts and messages in-process. It backs tests
// and local runs without a database.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[int64]domain.Account
	usernames   map[string]int64 // username -> account id
	messages    map[int64]domain.Message
	order       []int64 // message ids in insertion order
	nextAccount int64
	nextMessage int64
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:  make(map[int64]domain.Account),
		usernames: make(map[string]int64),
		messages:  make(map[int64]domain.Message),
	}
}

// CreateAccount stores a new account with a generated id.
func (m *MemoryStore) CreateAccount(username, password string) (domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.usernames[username]; exists {
		return domain.Account{}, ErrDuplicateUsername
	}
	m.nextAccount++
	acc := domain.Account{
		AccountID: m.nextAccount,
		Username:  username,
		Password:  password,
	}
	m.accounts[acc.AccountID] = acc
	m.usernames[username] = acc.AccountID
	return acc, nil
}

// GetAccountByUsername looks up an account by username.
func (m *MemoryStore) GetAccountByUsername(username string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.usernames[username]; ok {
		acc, exists := m.accounts[id]
		return acc, exists, nil
	}
	return domain.Account{}, false, nil
}

// GetAccountByID returns an account by id.
func (m *MemoryStore) GetAccountByID(id int64) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[id]
	return acc, ok, nil
}

// GetAccountByCredentials returns the account matching username and
// password exactly.
func (m *MemoryStore) GetAccountByCredentials(username, password string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.usernames[username]; ok {
		if acc, exists := m.accounts[id]; exists && acc.Password == password {
			return acc, true, nil
		}
	}
	return domain.Account{}, false, nil
}

// CreateMessage stores a new message with a generated id.
func (m *MemoryStore) CreateMessage(msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextMessage++
	msg.MessageID = m.nextMessage
	m.messages[msg.MessageID] = msg
	m.order = append(m.order, msg.MessageID)
	return msg, nil
}

// ListMessages returns messages in insertion order.
func (m *MemoryStore) ListMessages() ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Message, 0, len(m.order))
	for _, id := range m.order {
		if msg, ok := m.messages[id]; ok {
			res = append(res, msg)
		}
	}
	return res, nil
}

// GetMessageByID retrieves a message.
func (m *MemoryStore) GetMessageByID(id int64) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	return msg, ok, nil
}

// DeleteMessageByID removes a message and reports rows affected.
func (m *MemoryStore) DeleteMessageByID(id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return 0, nil
	}
	delete(m.messages, id)
	filtered := m.order[:0]
	for _, item := range m.order {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	m.order = filtered
	return 1, nil
}

// UpdateMessageTextByID replaces message_text only and reports rows
// affected.
func (m *MemoryStore) UpdateMessageTextByID(id int64, text string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return 0, nil
	}
	msg.MessageText = text
	m.messages[id] = msg
	return 1, nil
}

// ListMessagesByAccount returns messages posted by one account in
// insertion order.
func (m *MemoryStore) ListMessagesByAccount(accountID int64) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Message, 0, len(m.order))
	for _, id := range m.order {
		if msg, ok := m.messages[id]; ok && msg.PostedBy == accountID {
			res = append(res, msg)
		}
	}
	return res, nil
}
