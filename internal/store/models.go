package store

// GORM models used for persistence.
type AccountModel struct {
	AccountID int64  `gorm:"column:account_id;primaryKey;autoIncrement"`
	Username  string `gorm:"column:username;uniqueIndex;not null"`
	Password  string `gorm:"column:password;not null"`
}

// TableName keeps the table name singular for wire compatibility with
// the existing schema.
func (AccountModel) TableName() string { return "account" }

type MessageModel struct {
	MessageID       int64         `gorm:"column:message_id;primaryKey;autoIncrement"`
	PostedBy        int64         `gorm:"column:posted_by;not null;index"`
	MessageText     string        `gorm:"column:message_text;size:255;not null"`
	TimePostedEpoch int64         `gorm:"column:time_posted_epoch;not null"`
	Author          *AccountModel `gorm:"foreignKey:PostedBy;references:AccountID"`
}

func (MessageModel) TableName() string { return "message" }
