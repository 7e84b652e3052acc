package database

// User is a registered account. Password holds a bcrypt hash.
type User struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	UserName string `gorm:"uniqueIndex;not null" json:"user_name"`
	Password string `gorm:"not null" json:"-"`
	FullName string `json:"full_name"`
}

// Message is one direct message, optionally carrying file metadata.
// Timestamp is assigned server-side as "YYYY-MM-DD HH:MM:SS" local time.
type Message struct {
	ID         int64   `gorm:"primaryKey" json:"id"`
	SenderID   int64   `gorm:"index:idx_messages_pair" json:"sender_id"`
	ReceiverID int64   `gorm:"index:idx_messages_pair" json:"receiver_id"`
	Content    string  `json:"content"`
	FileName   *string `json:"file_name,omitempty"`
	FileType   *string `json:"file_type,omitempty"`
	FileSize   *int64  `json:"file_size,omitempty"`
	Timestamp  string  `gorm:"index" json:"timestamp"`
}

// Friendship is one direction of a symmetric friend pair. Both directions
// are always written or removed together, inside one transaction.
type Friendship struct {
	UserID   int64 `gorm:"primaryKey;autoIncrement:false"`
	FriendID int64 `gorm:"primaryKey;autoIncrement:false"`
}

// OnlineUser marks a user id as currently online.
type OnlineUser struct {
	ID int64 `gorm:"primaryKey;autoIncrement:false"`
}

// EphemeralConversation is the tracking row for a self-expiring conversation
// pair. The purge timer itself lives in the scheduler, keyed by the same pair.
type EphemeralConversation struct {
	SenderID   int64 `gorm:"primaryKey;autoIncrement:false"`
	ReceiverID int64 `gorm:"primaryKey;autoIncrement:false"`
}
