package hub

import (
	"encoding/json"

	"psichat/internal/database"
)

// EventKind is the closed set of inbound event types. The wire tag values
// are fixed by the client protocol.
type EventKind string

const (
	EventRegister       EventKind = "register"
	EventLogin          EventKind = "login"
	EventGetUsers       EventKind = "get_users"
	EventSendMessage    EventKind = "send_message"
	EventSendFile       EventKind = "send_file"
	EventGetMessages    EventKind = "get_messages"
	EventUserConnected  EventKind = "user_connected"
	EventGetFriends     EventKind = "get_friends"
	EventAddFriend      EventKind = "add_friend"
	EventDeleteFriend   EventKind = "delete_friend"
	EventDeleteMessage  EventKind = "delete_message"
	EventEditMessage    EventKind = "edit_message"
	EventCountMessages  EventKind = "count_messages_request"
	EventLogOut         EventKind = "log_out"
	EventEphemeralOn    EventKind = "temporaryM"
	EventEphemeralOff   EventKind = "deactivateT"
)

// envelope is the raw inbound frame. Data is decoded exactly once, into the
// payload type matching the event kind.
type envelope struct {
	Type EventKind       `json:"type"`
	Data json.RawMessage `json:"data"`
}

type registerPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sendMessagePayload struct {
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
}

type sendFilePayload struct {
	ReceiverID int64  `json:"receiver_id"`
	FileName   string `json:"file_name"`
	FileType   string `json:"file_type"`
	FileSize   int64  `json:"file_size"`
	Content    string `json:"content"`
}

type getMessagesPayload struct {
	OtherUserID int64 `json:"other_user_id"`
}

type userConnectedPayload struct {
	UserID int64 `json:"userId"`
}

type getFriendsPayload struct {
	UserID int64 `json:"userId"`
}

// friendPayload carries add_friend and delete_friend data: the acting user's
// id plus the other party's username.
type friendPayload struct {
	UserName string `json:"userName"`
	UserID   int64  `json:"userID"`
}

type deleteMessagePayload struct {
	MessageID int64 `json:"message_id"`
}

type editMessagePayload struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

type logOutPayload struct {
	UserID int64 `json:"idUser"`
}

type ephemeralPayload struct {
	Sender   int64 `json:"sender"`
	Receiver int64 `json:"receiver"`
}

// ack is the generic response envelope used for simple success/failure
// answers.
type ack struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type userInfo struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Fullname string `json:"fullname"`
}

type loginResponse struct {
	Type    string    `json:"type"`
	Success bool      `json:"success"`
	User    *userInfo `json:"user,omitempty"`
	Message string    `json:"message,omitempty"`
}

type usersListResponse struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Users   []database.User `json:"users"`
}

type messageSentResponse struct {
	Type    string            `json:"type"`
	Success bool              `json:"success"`
	Message *database.Message `json:"message"`
}

// senderInfo identifies the sender inside a new_message push.
type senderInfo struct {
	ID       int64  `json:"id"`
	Fullname string `json:"fullname"`
}

type newMessagePush struct {
	Type    string            `json:"type"`
	Message *database.Message `json:"message"`
	Sender  senderInfo        `json:"sender"`
}

type messagesHistoryResponse struct {
	Type     string             `json:"type"`
	Success  bool               `json:"success"`
	Messages []database.Message `json:"messages"`
}

type friendsListResponse struct {
	Type    string          `json:"type"`
	Success bool            `json:"success"`
	Friends []database.User `json:"friends"`
}

type messageDeletedPush struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	MessageID int64  `json:"message_id"`
}

type messageEditedResponse struct {
	Type      string `json:"type"`
	Success   bool   `json:"success"`
	MessageID int64  `json:"message_id,omitempty"`
	Content   string `json:"content,omitempty"`
	Message   string `json:"message,omitempty"`
}

type countMessagesResponse struct {
	Type             string `json:"type"`
	Success          bool   `json:"success"`
	Total            int64  `json:"total"`
	TotalUsers       int64  `json:"totalUsers"`
	MessagesFromDate int64  `json:"messagesFromDate"`
}
