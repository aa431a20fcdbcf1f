package domain

// Account is a registered user. The password travels in API responses
// verbatim; existing clients depend on the full row coming back.
type Account struct {
	AccountID int64  `json:"account_id"`
	Username  string `json:"username"`
	Password  string `json:"password"`
}

// Message is a post made by an account. TimePostedEpoch is supplied by
// the caller at creation and round-trips unchanged.
type Message struct {
	MessageID       int64  `json:"message_id"`
	PostedBy        int64  `json:"posted_by"`
	MessageText     string `json:"message_text"`
	TimePostedEpoch int64  `json:"time_posted_epoch"`
}
