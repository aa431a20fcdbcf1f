package app

import (
	"fmt"
	"strings"

	"microblog/internal/store"
	"microblog/pkg/domain"
)

const minPasswordLen = 4

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	Store       store.Store
}

// App is the core application service wiring business rules to storage.
type App struct {
	store store.Store
}

// New constructs the application. A Store in the config wins; otherwise
// a Postgres store is opened from DatabaseURL.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	return &App{store: dataStore}, nil
}

// Register creates a new account. Rules, first failure wins: username
// non-blank, password at least 4 characters, username not already
// registered.
func (a *App) Register(username, password string) (domain.Account, error) {
	if strings.TrimSpace(username) == "" {
		return domain.Account{}, ErrUsernameRequired
	}
	if len(password) < minPasswordLen {
		return domain.Account{}, ErrPasswordTooShort
	}
	_, exists, err := a.store.GetAccountByUsername(username)
	if err != nil {
		return domain.Account{}, fmt.Errorf("check username: %w", err)
	}
	if exists {
		return domain.Account{}, ErrUsernameTaken
	}
	account, err := a.store.CreateAccount(username, password)
	if err != nil {
		// The uniqueness check above races with concurrent registration;
		// the unique index makes the loser land here.
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}
	return account, nil
}

// Login resolves an account by exact username/password match. A blank
// username or password simply fails to match.
func (a *App) Login(username, password string) (domain.Account, error) {
	account, ok, err := a.store.GetAccountByCredentials(username, password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("fetch account: %w", err)
	}
	if !ok {
		return domain.Account{}, ErrInvalidCredentials
	}
	return account, nil
}
