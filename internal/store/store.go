package store

import "microblog/pkg/domain"

// Store defines persistence operations for accounts and messages.
// Lookups report absence through the bool so callers never confuse
// "not found" with a storage error.
type Store interface {
	// accounts
	CreateAccount(username, password string) (domain.Account, error)
	GetAccountByUsername(username string) (domain.Account, bool, error)
	GetAccountByID(id int64) (domain.Account, bool, error)
	GetAccountByCredentials(username, password string) (domain.Account, bool, error)

	// messages
	CreateMessage(msg domain.Message) (domain.Message, error)
	ListMessages() ([]domain.Message, error)
	GetMessageByID(id int64) (domain.Message, bool, error)
	DeleteMessageByID(id int64) (int64, error)
	UpdateMessageTextByID(id int64, text string) (int64, error)
	ListMessagesByAccount(accountID int64) ([]domain.Message, error)
}
