package database

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TimeLayout is the wall-clock format stored in message rows. Date-prefix
// string comparison works because the layout sorts lexicographically.
const TimeLayout = "2006-01-02 15:04:05"

// ErrNotFound is returned when a queried row does not exist, or when
// credentials do not match any user.
var ErrNotFound = errors.New("not found")

// Store is the persistence collaborator consumed by the router and the
// scheduler. All methods are safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Store) CreateUser(username, password, fullname string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := User{UserName: username, Password: string(hashed), FullName: fullname}
	if err := s.db.Create(&user).Error; err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// Authenticate verifies username/password and returns the matching user.
// A missing user and a wrong password both yield ErrNotFound.
func (s *Store) Authenticate(username, password string) (*User, error) {
	var user User
	err := s.db.Where("user_name = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (s *Store) UserByID(id int64) (*User, error) {
	var user User
	err := s.db.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

func (s *Store) UserByUsername(username string) (*User, error) {
	var user User
	err := s.db.Where("user_name = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ListUsers returns the full user directory.
func (s *Store) ListUsers() ([]User, error) {
	var users []User
	if err := s.db.Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SaveMessage persists a message, assigning the server timestamp when the
// caller left it empty, and fills in the generated id.
func (s *Store) SaveMessage(m *Message) error {
	if m.Timestamp == "" {
		m.Timestamp = time.Now().Format(TimeLayout)
	}
	if err := s.db.Create(m).Error; err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// MessagesBetween returns the complete history between two users in both
// directions, oldest first. Unbounded by design.
func (s *Store) MessagesBetween(userID, otherID int64) ([]Message, error) {
	var messages []Message
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("timestamp ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return messages, nil
}

// OwnedMessage returns the message only when it exists and was sent by
// senderID; otherwise ErrNotFound.
func (s *Store) OwnedMessage(id, senderID int64) (*Message, error) {
	var m Message
	err := s.db.Where("id = ? AND sender_id = ?", id, senderID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query message: %w", err)
	}
	return &m, nil
}

func (s *Store) DeleteMessage(id int64) error {
	if err := s.db.Delete(&Message{}, id).Error; err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}

func (s *Store) UpdateMessageContent(id int64, content string) error {
	err := s.db.Model(&Message{}).Where("id = ?", id).Update("content", content).Error
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}
	return nil
}

// AddFriendship inserts both directions of the pair in one transaction, so
// a half-written friendship can never be observed.
func (s *Store) AddFriendship(userID, friendID int64) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pair := []Friendship{
			{UserID: userID, FriendID: friendID},
			{UserID: friendID, FriendID: userID},
		}
		return tx.Create(&pair).Error
	})
	if err != nil {
		return fmt.Errorf("insert friendship: %w", err)
	}
	return nil
}

// DeleteFriendship removes both directions of the pair in one transaction.
func (s *Store) DeleteFriendship(userID, friendID int64) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.
			Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
				userID, friendID, friendID, userID).
			Delete(&Friendship{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete friendship: %w", err)
	}
	return nil
}

// FriendsOf returns the users on userID's friend list.
func (s *Store) FriendsOf(userID int64) ([]User, error) {
	var friends []User
	err := s.db.
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Find(&friends).Error
	if err != nil {
		return nil, fmt.Errorf("query friends: %w", err)
	}
	return friends, nil
}

// MarkOnline records the user id in the online table; already present is
// not an error.
func (s *Store) MarkOnline(userID int64) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&OnlineUser{ID: userID}).Error
	if err != nil {
		return fmt.Errorf("insert online user: %w", err)
	}
	return nil
}

func (s *Store) MarkOffline(userID int64) error {
	if err := s.db.Delete(&OnlineUser{}, userID).Error; err != nil {
		return fmt.Errorf("delete online user: %w", err)
	}
	return nil
}

// MessageCounts is the stats triple served to count_messages_request.
type MessageCounts struct {
	Total      int64
	TotalUsers int64
	SinceToday int64
}

// MessageCounts reads all three counters in a single statement so the
// triple is consistent.
func (s *Store) MessageCounts() (*MessageCounts, error) {
	today := time.Now().Format("2006-01-02")

	var counts MessageCounts
	row := s.db.Raw(`
		SELECT
			(SELECT COUNT(*) FROM messages) AS total,
			(SELECT COUNT(*) FROM online_users) AS total_users,
			(SELECT COUNT(*) FROM messages WHERE timestamp >= ?) AS since_today`,
		today,
	).Row()
	if err := row.Scan(&counts.Total, &counts.TotalUsers, &counts.SinceToday); err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	return &counts, nil
}

// RegisterEphemeral inserts the tracking row for a self-expiring
// conversation pair. Re-registering an existing pair is not an error.
func (s *Store) RegisterEphemeral(senderID, receiverID int64) error {
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&EphemeralConversation{SenderID: senderID, ReceiverID: receiverID}).Error
	if err != nil {
		return fmt.Errorf("insert ephemeral conversation: %w", err)
	}
	return nil
}

func (s *Store) RemoveEphemeral(senderID, receiverID int64) error {
	err := s.db.
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Delete(&EphemeralConversation{}).Error
	if err != nil {
		return fmt.Errorf("delete ephemeral conversation: %w", err)
	}
	return nil
}

// PurgeBetween deletes every message between the two users, both directions.
func (s *Store) PurgeBetween(senderID, receiverID int64) error {
	err := s.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			senderID, receiverID, receiverID, senderID).
		Delete(&Message{}).Error
	if err != nil {
		return fmt.Errorf("purge messages: %w", err)
	}
	return nil
}
