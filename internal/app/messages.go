package app

import (
	"fmt"
	"strings"

	"microblog/pkg/domain"
)

const maxMessageLen = 255

// PostMessage creates a message. Rules, first failure wins: text
// non-blank, text at most 255 characters, posted_by resolves to an
// existing account. The caller-supplied timestamp passes through
// unchanged.
func (a *App) PostMessage(postedBy int64, text string, timePostedEpoch int64) (domain.Message, error) {
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrMessageTextRequired
	}
	if len(text) > maxMessageLen {
		return domain.Message{}, ErrMessageTextTooLong
	}
	_, ok, err := a.store.GetAccountByID(postedBy)
	if err != nil {
		return domain.Message{}, fmt.Errorf("check account: %w", err)
	}
	if !ok {
		return domain.Message{}, ErrUnknownAccount
	}
	msg, err := a.store.CreateMessage(domain.Message{
		PostedBy:        postedBy,
		MessageText:     text,
		TimePostedEpoch: timePostedEpoch,
	})
	if err != nil {
		return domain.Message{}, fmt.Errorf("create message: %w", err)
	}
	return msg, nil
}

// Messages returns every message; the slice is never nil.
func (a *App) Messages() ([]domain.Message, error) {
	msgs, err := a.store.ListMessages()
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// MessageByID retrieves a message; absence is not an error.
func (a *App) MessageByID(id int64) (domain.Message, bool, error) {
	msg, ok, err := a.store.GetMessageByID(id)
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("get message: %w", err)
	}
	return msg, ok, nil
}

// DeleteMessage removes a message and returns its pre-delete snapshot.
// Deleting an absent id reports ok=false, first and repeated calls
// alike.
func (a *App) DeleteMessage(id int64) (domain.Message, bool, error) {
	snapshot, ok, err := a.store.GetMessageByID(id)
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("get message: %w", err)
	}
	if !ok {
		return domain.Message{}, false, nil
	}
	affected, err := a.store.DeleteMessageByID(id)
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("delete message: %w", err)
	}
	if affected != 1 {
		// Lost a race with a concurrent delete; same outcome as absent.
		return domain.Message{}, false, nil
	}
	return snapshot, true, nil
}

// UpdateMessageText replaces message_text only, leaving posted_by and
// time_posted_epoch untouched. Rules, first failure wins: message
// exists, new text non-blank, new text at most 255 characters. The
// post-update row is re-read and returned.
func (a *App) UpdateMessageText(id int64, text string) (domain.Message, error) {
	_, ok, err := a.store.GetMessageByID(id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("get message: %w", err)
	}
	if !ok {
		return domain.Message{}, ErrMessageNotFound
	}
	if strings.TrimSpace(text) == "" {
		return domain.Message{}, ErrMessageTextRequired
	}
	if len(text) > maxMessageLen {
		return domain.Message{}, ErrMessageTextTooLong
	}
	affected, err := a.store.UpdateMessageTextByID(id, text)
	if err != nil {
		return domain.Message{}, fmt.Errorf("update message: %w", err)
	}
	if affected != 1 {
		return domain.Message{}, ErrMessageNotFound
	}
	updated, ok, err := a.store.GetMessageByID(id)
	if err != nil {
		return domain.Message{}, fmt.Errorf("reread message: %w", err)
	}
	if !ok {
		return domain.Message{}, ErrMessageNotFound
	}
	return updated, nil
}

// MessagesByAccount returns messages posted by one account. No
// existence check on the account; an unknown id yields an empty slice.
func (a *App) MessagesByAccount(accountID int64) ([]domain.Message, error) {
	msgs, err := a.store.ListMessagesByAccount(accountID)
	if err != nil {
		return nil, fmt.Errorf("list messages by account: %w", err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}
