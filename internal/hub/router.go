package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"psichat/internal/cipher"
	"psichat/internal/database"
)

// Shift applied to traffic addressed to the translator bot.
const translationShift = 3

// Translator is the external translation collaborator.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Scheduler drives the self-expiring conversation purge cycles.
type Scheduler interface {
	Register(senderID, receiverID int64, notify func()) error
	Deactivate(senderID, receiverID int64) error
}

// Router validates inbound events, talks to the store, and fans results out
// to the right connections through the session registry.
type Router struct {
	store      *database.Store
	registry   *SessionRegistry
	hub        *Hub
	scheduler  Scheduler
	translator Translator
	botID      int64
}

func NewRouter(store *database.Store, registry *SessionRegistry, h *Hub, sched Scheduler, translator Translator, botID int64) *Router {
	return &Router{
		store:      store,
		registry:   registry,
		hub:        h,
		scheduler:  sched,
		translator: translator,
		botID:      botID,
	}
}

// Dispatch decodes one inbound frame and runs the matching handler. Frames
// with an unknown type or an unparseable payload are logged and dropped; the
// connection stays open.
func (r *Router) Dispatch(c *Client, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("discarding malformed frame", "conn_id", c.ID(), "error", err)
		return
	}

	switch env.Type {
	case EventRegister:
		handle(c, env.Data, r.handleRegister)
	case EventLogin:
		handle(c, env.Data, r.handleLogin)
	case EventGetUsers:
		r.handleGetUsers(c)
	case EventSendMessage:
		handle(c, env.Data, r.handleSendMessage)
	case EventSendFile:
		handle(c, env.Data, r.handleSendFile)
	case EventGetMessages:
		handle(c, env.Data, r.handleGetMessages)
	case EventUserConnected:
		handle(c, env.Data, r.handleUserConnected)
	case EventGetFriends:
		handle(c, env.Data, r.handleGetFriends)
	case EventAddFriend:
		handle(c, env.Data, r.handleAddFriend)
	case EventDeleteFriend:
		handle(c, env.Data, r.handleDeleteFriend)
	case EventDeleteMessage:
		handle(c, env.Data, r.handleDeleteMessage)
	case EventEditMessage:
		handle(c, env.Data, r.handleEditMessage)
	case EventCountMessages:
		r.handleCountMessages(c)
	case EventLogOut:
		handle(c, env.Data, r.handleLogOut)
	case EventEphemeralOn:
		handle(c, env.Data, r.handleEphemeralOn)
	case EventEphemeralOff:
		handle(c, env.Data, r.handleEphemeralOff)
	default:
		slog.Warn("discarding frame of unknown type", "conn_id", c.ID(), "type", env.Type)
	}
}

// handle decodes the payload for one event kind and invokes its handler.
func handle[T any](c *Client, data json.RawMessage, fn func(*Client, T)) {
	var payload T
	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			slog.Warn("discarding malformed payload", "conn_id", c.ID(), "error", err)
			return
		}
	}
	fn(c, payload)
}

// Disconnect releases everything the connection holds. Must run before any
// further dispatch for the connection; the read pump calls it from its defer.
func (r *Router) Disconnect(c *Client) {
	_, hadSession := r.registry.Lookup(c)
	r.registry.Unbind(c)
	r.hub.Remove(c)
	c.Close()
	if hadSession {
		r.broadcastUsersList()
	}
}

func (r *Router) handleRegister(c *Client, p registerPayload) {
	if err := r.store.CreateUser(p.Username, p.Password, p.Fullname); err != nil {
		slog.Error("failed to register user", "username", p.Username, "error", err)
		c.SendJSON(ack{Type: "register", Success: false, Message: "Could not register user"})
		return
	}
	c.SendJSON(ack{Type: "register", Success: true, Message: "Registration successful"})
}

func (r *Router) handleLogin(c *Client, p loginPayload) {
	user, err := r.store.Authenticate(p.Username, p.Password)
	if errors.Is(err, database.ErrNotFound) {
		c.SendJSON(loginResponse{Type: "login", Success: false, Message: "Invalid username or password"})
		return
	}
	if err != nil {
		slog.Error("login query failed", "username", p.Username, "error", err)
		c.SendJSON(loginResponse{Type: "login", Success: false, Message: "Server error"})
		return
	}

	r.registry.Bind(c, Session{UserID: user.ID, Username: user.UserName, FullName: user.FullName})
	c.SendJSON(loginResponse{
		Type:    "login",
		Success: true,
		User:    &userInfo{ID: user.ID, Username: user.UserName, Fullname: user.FullName},
	})
	r.broadcastUsersList()
}

func (r *Router) handleGetUsers(c *Client) {
	users, err := r.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users", "error", err)
		c.SendJSON(ack{Type: "users_list", Success: false, Message: "Could not fetch users"})
		return
	}
	c.SendJSON(usersListResponse{Type: "users_list", Success: true, Users: users})
}

func (r *Router) handleSendMessage(c *Client, p sendMessagePayload) {
	sender, ok := r.registry.Lookup(c)
	if !ok {
		// Unauthenticated sends are dropped without acknowledgment.
		return
	}

	msg := &database.Message{
		SenderID:   sender.UserID,
		ReceiverID: p.ReceiverID,
		Content:    p.Content,
	}
	if err := r.store.SaveMessage(msg); err != nil {
		slog.Error("failed to save message", "sender_id", sender.UserID, "error", err)
		c.SendJSON(ack{Type: "message_sent", Success: false, Message: "Could not send message"})
		return
	}

	c.SendJSON(messageSentResponse{Type: "message_sent", Success: true, Message: msg})
	r.pushNewMessage(msg, senderInfo{ID: sender.UserID, Fullname: sender.FullName})

	// The ack above never waits on translation.
	if p.ReceiverID == r.botID {
		go r.runTranslationPipeline(sender.UserID, p.Content)
	}
}

func (r *Router) handleSendFile(c *Client, p sendFilePayload) {
	sender, ok := r.registry.Lookup(c)
	if !ok {
		return
	}

	msg := &database.Message{
		SenderID:   sender.UserID,
		ReceiverID: p.ReceiverID,
		Content:    p.Content,
		FileName:   &p.FileName,
		FileType:   &p.FileType,
		FileSize:   &p.FileSize,
	}
	if err := r.store.SaveMessage(msg); err != nil {
		slog.Error("failed to save file message", "sender_id", sender.UserID, "error", err)
		c.SendJSON(ack{Type: "message_sent", Success: false, Message: "Could not send file"})
		return
	}

	c.SendJSON(messageSentResponse{Type: "message_sent", Success: true, Message: msg})
	r.pushNewMessage(msg, senderInfo{ID: sender.UserID, Fullname: sender.FullName})
}

// pushNewMessage delivers a new_message envelope to every connection the
// receiver currently has.
func (r *Router) pushNewMessage(msg *database.Message, sender senderInfo) {
	for _, peer := range r.registry.FindAllByUserID(msg.ReceiverID) {
		peer.SendJSON(newMessagePush{Type: "new_message", Message: msg, Sender: sender})
	}
}

func (r *Router) handleGetMessages(c *Client, p getMessagesPayload) {
	session, ok := r.registry.Lookup(c)
	if !ok {
		return
	}

	messages, err := r.store.MessagesBetween(session.UserID, p.OtherUserID)
	if err != nil {
		slog.Error("failed to load history", "user_id", session.UserID, "error", err)
		c.SendJSON(ack{Type: "messages_history", Success: false, Message: "Could not fetch messages"})
		return
	}
	c.SendJSON(messagesHistoryResponse{Type: "messages_history", Success: true, Messages: messages})
}

func (r *Router) handleUserConnected(c *Client, p userConnectedPayload) {
	if p.UserID != 0 {
		if err := r.store.MarkOnline(p.UserID); err != nil {
			slog.Error("failed to mark user online", "user_id", p.UserID, "error", err)
			c.SendJSON(ack{Type: "add_user_online", Success: false, Message: "Could not mark user online"})
		}
	}

	user, err := r.store.UserByID(p.UserID)
	if err != nil {
		return
	}
	r.registry.Bind(c, Session{UserID: user.ID, Username: user.UserName, FullName: user.FullName})
	r.broadcastUsersList()
}

func (r *Router) handleGetFriends(c *Client, p getFriendsPayload) {
	friends, err := r.store.FriendsOf(p.UserID)
	if err != nil {
		slog.Error("failed to list friends", "user_id", p.UserID, "error", err)
		c.SendJSON(ack{Type: "friends_list", Success: false, Message: "Could not fetch friends"})
		return
	}
	c.SendJSON(friendsListResponse{Type: "friends_list", Success: true, Friends: friends})
}

func (r *Router) handleAddFriend(c *Client, p friendPayload) {
	friend, err := r.store.UserByUsername(p.UserName)
	if errors.Is(err, database.ErrNotFound) {
		c.SendJSON(ack{Type: "success", Success: false, Message: "The specified user does not exist"})
		return
	}
	if err != nil {
		slog.Error("failed to look up friend", "username", p.UserName, "error", err)
		c.SendJSON(ack{Type: "success", Success: false, Message: "Could not look up user"})
		return
	}

	if err := r.store.AddFriendship(p.UserID, friend.ID); err != nil {
		slog.Error("failed to add friendship", "user_id", p.UserID, "friend_id", friend.ID, "error", err)
		c.SendJSON(ack{Type: "success", Success: false, Message: "Could not add friend, they may already be on the list"})
		return
	}
	c.SendJSON(ack{Type: "success", Success: true, Message: "Friend added"})
}

func (r *Router) handleDeleteFriend(c *Client, p friendPayload) {
	friend, err := r.store.UserByUsername(p.UserName)
	if errors.Is(err, database.ErrNotFound) {
		c.SendJSON(ack{Type: "delete", Success: false, Message: "The specified user does not exist"})
		return
	}
	if err != nil {
		slog.Error("failed to look up friend", "username", p.UserName, "error", err)
		c.SendJSON(ack{Type: "delete", Success: false, Message: "Could not look up user"})
		return
	}

	if err := r.store.DeleteFriendship(p.UserID, friend.ID); err != nil {
		slog.Error("failed to delete friendship", "user_id", p.UserID, "friend_id", friend.ID, "error", err)
		c.SendJSON(ack{Type: "delete", Success: false, Message: "Could not delete friend"})
		return
	}
	c.SendJSON(ack{Type: "delete", Success: true, Message: "Friend removed"})
}

func (r *Router) handleDeleteMessage(c *Client, p deleteMessagePayload) {
	session, ok := r.registry.Lookup(c)
	if !ok {
		return
	}

	// Missing rows and rows owned by someone else are indistinguishable to
	// the caller.
	msg, err := r.store.OwnedMessage(p.MessageID, session.UserID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			slog.Error("failed to load message", "message_id", p.MessageID, "error", err)
		}
		c.SendJSON(ack{Type: "message_deleted", Success: false, Message: "Message not found or not authorized"})
		return
	}

	if err := r.store.DeleteMessage(p.MessageID); err != nil {
		slog.Error("failed to delete message", "message_id", p.MessageID, "error", err)
		c.SendJSON(ack{Type: "message_deleted", Success: false, Message: "Could not delete message"})
		return
	}

	c.SendJSON(ack{Type: "message_deleted", Success: true})
	for _, peer := range r.registry.FindAllByUserID(msg.ReceiverID) {
		peer.SendJSON(messageDeletedPush{Type: "message_deleted", Success: true, MessageID: p.MessageID})
	}
}

func (r *Router) handleEditMessage(c *Client, p editMessagePayload) {
	session, ok := r.registry.Lookup(c)
	if !ok {
		return
	}

	msg, err := r.store.OwnedMessage(p.MessageID, session.UserID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			slog.Error("failed to load message", "message_id", p.MessageID, "error", err)
		}
		c.SendJSON(messageEditedResponse{Type: "message_edited", Success: false, Message: "Message not found or not authorized"})
		return
	}

	if err := r.store.UpdateMessageContent(p.MessageID, p.Content); err != nil {
		slog.Error("failed to update message", "message_id", p.MessageID, "error", err)
		c.SendJSON(messageEditedResponse{Type: "message_edited", Success: false, Message: "Could not update message"})
		return
	}

	// The new content is echoed verbatim to both parties.
	edited := messageEditedResponse{Type: "message_edited", Success: true, MessageID: p.MessageID, Content: p.Content}
	c.SendJSON(edited)
	for _, peer := range r.registry.FindAllByUserID(msg.ReceiverID) {
		peer.SendJSON(edited)
	}
}

func (r *Router) handleCountMessages(c *Client) {
	counts, err := r.store.MessageCounts()
	if err != nil {
		slog.Error("failed to count messages", "error", err)
		c.SendJSON(ack{Type: "count_messages", Success: false, Message: "Could not fetch message counts"})
		return
	}
	c.SendJSON(countMessagesResponse{
		Type:             "count_messages",
		Success:          true,
		Total:            counts.Total,
		TotalUsers:       counts.TotalUsers,
		MessagesFromDate: counts.SinceToday,
	})
}

func (r *Router) handleLogOut(c *Client, p logOutPayload) {
	if err := r.store.MarkOffline(p.UserID); err != nil {
		slog.Error("failed to mark user offline", "user_id", p.UserID, "error", err)
		c.SendJSON(ack{Type: "remove_user_online", Success: false, Message: "Could not remove online user"})
	}

	if _, ok := r.registry.Lookup(c); ok {
		r.registry.Unbind(c)
		r.broadcastUsersList()
	}
}

func (r *Router) handleEphemeralOn(c *Client, p ephemeralPayload) {
	notify := func() {
		// The registrant may be gone by the time a tick fires; the purge
		// cycle itself keeps running either way.
		if !r.hub.IsOpen(c) {
			return
		}
		c.SendJSON(ack{Type: "confirmation", Success: true, Message: "Conversation history purged"})
	}

	if err := r.scheduler.Register(p.Sender, p.Receiver, notify); err != nil {
		slog.Error("failed to register ephemeral conversation", "sender_id", p.Sender, "receiver_id", p.Receiver, "error", err)
		c.SendJSON(ack{Type: "temporaryA", Success: false, Message: "Could not register conversation"})
		return
	}
	c.SendJSON(ack{Type: "temporaryA", Success: true, Message: "Conversation registered"})
}

func (r *Router) handleEphemeralOff(c *Client, p ephemeralPayload) {
	if err := r.scheduler.Deactivate(p.Sender, p.Receiver); err != nil {
		slog.Error("failed to deactivate ephemeral conversation", "sender_id", p.Sender, "receiver_id", p.Receiver, "error", err)
		c.SendJSON(ack{Type: "exito", Success: false, Message: "Could not deactivate conversation"})
		return
	}
	c.SendJSON(ack{Type: "exito", Success: true, Message: "Conversation deactivated"})
}

// broadcastUsersList pushes the full user directory to every open
// connection. Full refresh, idempotent.
func (r *Router) broadcastUsersList() {
	users, err := r.store.ListUsers()
	if err != nil {
		slog.Error("failed to list users for broadcast", "error", err)
		return
	}

	frame, err := json.Marshal(usersListResponse{Type: "users_list", Success: true, Users: users})
	if err != nil {
		slog.Error("failed to marshal users list", "error", err)
		return
	}
	r.hub.Broadcast(frame)
}

// runTranslationPipeline handles traffic addressed to the translator bot:
// decrypt, translate, re-encrypt, then synthesize a reply from the bot back
// to the original sender through the normal persistence and notify path.
func (r *Router) runTranslationPipeline(senderID int64, content string) {
	plain := cipher.Decrypt(content, translationShift)

	translated, err := r.translator.Translate(context.Background(), plain)
	if err != nil {
		slog.Error("translation failed", "error", err)
		return
	}

	reply := &database.Message{
		SenderID:   r.botID,
		ReceiverID: senderID,
		Content:    cipher.Encrypt(translated, translationShift),
	}
	if err := r.store.SaveMessage(reply); err != nil {
		slog.Error("failed to save translated reply", "error", err)
		return
	}

	var fullname string
	if bot, err := r.store.UserByID(r.botID); err == nil {
		fullname = bot.FullName
	}
	r.pushNewMessage(reply, senderInfo{ID: r.botID, Fullname: fullname})
}
