package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"microblog/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations. The unique index
// on username and the posted_by foreign key live in the schema, so a
// check-then-write race in the service layer surfaces as a store error
// instead of a duplicate or orphaned row.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&AccountModel{}, &MessageModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreateAccount inserts a row and returns it with the generated id.
func (s *GormStore) CreateAccount(username, password string) (domain.Account, error) {
	model := AccountModel{Username: username, Password: password}
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return accountFromModel(model), nil
}

// GetAccountByUsername looks up an account by username.
func (s *GormStore) GetAccountByUsername(username string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.First(&model, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// GetAccountByID returns an account by id.
func (s *GormStore) GetAccountByID(id int64) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.First(&model, "account_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// GetAccountByCredentials returns the account matching both username
// and password exactly.
func (s *GormStore) GetAccountByCredentials(username, password string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.First(&model, "username = ? AND password = ?", username, password).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// CreateMessage inserts a row and returns it with the generated id.
func (s *GormStore) CreateMessage(msg domain.Message) (domain.Message, error) {
	model := messageToModel(msg)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return messageFromModel(model), nil
}

// ListMessages returns every message. Order is whatever the store
// yields; nothing is guaranteed.
func (s *GormStore) ListMessages() ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Find(&models).Error; err != nil {
		return nil, err
	}
	return messagesFromModels(models), nil
}

// GetMessageByID retrieves a message.
func (s *GormStore) GetMessageByID(id int64) (domain.Message, bool, error) {
	var model MessageModel
	if err := s.db.First(&model, "message_id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	return messageFromModel(model), true, nil
}

// DeleteMessageByID removes a message and reports rows affected (0 or 1).
func (s *GormStore) DeleteMessageByID(id int64) (int64, error) {
	res := s.db.Delete(&MessageModel{}, "message_id = ?", id)
	if res.Error != nil {
		return 0, fmt.Errorf("delete message: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// UpdateMessageTextByID replaces message_text only and reports rows
// affected (0 or 1).
func (s *GormStore) UpdateMessageTextByID(id int64, text string) (int64, error) {
	res := s.db.Model(&MessageModel{}).
		Where("message_id = ?", id).
		Update("message_text", text)
	if res.Error != nil {
		return 0, fmt.Errorf("update message text: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListMessagesByAccount returns messages posted by one account.
func (s *GormStore) ListMessagesByAccount(accountID int64) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Find(&models, "posted_by = ?", accountID).Error; err != nil {
		return nil, err
	}
	return messagesFromModels(models), nil
}

func accountFromModel(m AccountModel) domain.Account {
	return domain.Account{
		AccountID: m.AccountID,
		Username:  m.Username,
		Password:  m.Password,
	}
}

func messageToModel(msg domain.Message) MessageModel {
	return MessageModel{
		MessageID:       msg.MessageID,
		PostedBy:        msg.PostedBy,
		MessageText:     msg.MessageText,
		TimePostedEpoch: msg.TimePostedEpoch,
	}
}

func messageFromModel(m MessageModel) domain.Message {
	return domain.Message{
		MessageID:       m.MessageID,
		PostedBy:        m.PostedBy,
		MessageText:     m.MessageText,
		TimePostedEpoch: m.TimePostedEpoch,
	}
}

func messagesFromModels(models []MessageModel) []domain.Message {
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		res = append(res, messageFromModel(m))
	}
	return res
}
