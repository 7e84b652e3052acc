package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return store
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("alice", "secret", "Alice A"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	user, err := store.Authenticate("alice", "secret")
	if err != nil {
		t.Fatalf("failed to authenticate: %v", err)
	}
	if user.UserName != "alice" || user.FullName != "Alice A" {
		t.Errorf("unexpected user: %+v", user)
	}
	if user.Password == "secret" {
		t.Error("password must not be stored in plaintext")
	}

	if _, err := store.Authenticate("alice", "wrong"); !errors.Is(err, ErrNotFound) {
		t.Errorf("wrong password: got %v, want ErrNotFound", err)
	}
	if _, err := store.Authenticate("nobody", "secret"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown user: got %v, want ErrNotFound", err)
	}
}

func TestCreateUserRejectsDuplicateUsername(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("alice", "secret", "Alice A"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	if err := store.CreateUser("alice", "other", "Alice Two"); err == nil {
		t.Error("expected duplicate username to fail")
	}
}

func TestSaveMessageAssignsTimestampAndID(t *testing.T) {
	store := newTestStore(t)

	msg := &Message{SenderID: 1, ReceiverID: 2, Content: "hi"}
	if err := store.SaveMessage(msg); err != nil {
		t.Fatalf("failed to save message: %v", err)
	}
	if msg.ID == 0 {
		t.Error("expected generated id")
	}
	if _, err := time.Parse(TimeLayout, msg.Timestamp); err != nil {
		t.Errorf("timestamp %q does not match layout: %v", msg.Timestamp, err)
	}
}

func TestOwnedMessage(t *testing.T) {
	store := newTestStore(t)

	msg := &Message{SenderID: 1, ReceiverID: 2, Content: "hi"}
	if err := store.SaveMessage(msg); err != nil {
		t.Fatalf("failed to save message: %v", err)
	}

	if _, err := store.OwnedMessage(msg.ID, 1); err != nil {
		t.Errorf("owner lookup failed: %v", err)
	}
	if _, err := store.OwnedMessage(msg.ID, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("non-owner lookup: got %v, want ErrNotFound", err)
	}
	if _, err := store.OwnedMessage(9999, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing row lookup: got %v, want ErrNotFound", err)
	}
}

func TestFriendshipPairIsAtomicAndSymmetric(t *testing.T) {
	store := newTestStore(t)

	if err := store.CreateUser("alice", "pw", "Alice A"); err != nil {
		t.Fatalf("failed to create alice: %v", err)
	}
	if err := store.CreateUser("bob", "pw", "Bob B"); err != nil {
		t.Fatalf("failed to create bob: %v", err)
	}
	alice, _ := store.UserByUsername("alice")
	bob, _ := store.UserByUsername("bob")

	if err := store.AddFriendship(alice.ID, bob.ID); err != nil {
		t.Fatalf("failed to add friendship: %v", err)
	}

	aliceFriends, err := store.FriendsOf(alice.ID)
	if err != nil {
		t.Fatalf("failed to list alice's friends: %v", err)
	}
	bobFriends, err := store.FriendsOf(bob.ID)
	if err != nil {
		t.Fatalf("failed to list bob's friends: %v", err)
	}
	if len(aliceFriends) != 1 || aliceFriends[0].ID != bob.ID {
		t.Errorf("alice's friends: %+v", aliceFriends)
	}
	if len(bobFriends) != 1 || bobFriends[0].ID != alice.ID {
		t.Errorf("bob's friends: %+v", bobFriends)
	}

	// A duplicate add fails as a whole; no extra rows in either direction.
	if err := store.AddFriendship(alice.ID, bob.ID); err == nil {
		t.Error("expected duplicate friendship to fail")
	}
	if friends, _ := store.FriendsOf(alice.ID); len(friends) != 1 {
		t.Errorf("expected one friend after duplicate add, got %d", len(friends))
	}

	if err := store.DeleteFriendship(alice.ID, bob.ID); err != nil {
		t.Fatalf("failed to delete friendship: %v", err)
	}
	if friends, _ := store.FriendsOf(alice.ID); len(friends) != 0 {
		t.Errorf("expected alice's side removed, got %+v", friends)
	}
	if friends, _ := store.FriendsOf(bob.ID); len(friends) != 0 {
		t.Errorf("expected bob's side removed, got %+v", friends)
	}
}

func TestMarkOnlineIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.MarkOnline(5); err != nil {
		t.Fatalf("failed to mark online: %v", err)
	}
	if err := store.MarkOnline(5); err != nil {
		t.Errorf("second mark online should not fail: %v", err)
	}

	counts, err := store.MessageCounts()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts.TotalUsers != 1 {
		t.Errorf("expected 1 online user, got %d", counts.TotalUsers)
	}

	if err := store.MarkOffline(5); err != nil {
		t.Fatalf("failed to mark offline: %v", err)
	}
	counts, err = store.MessageCounts()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts.TotalUsers != 0 {
		t.Errorf("expected 0 online users, got %d", counts.TotalUsers)
	}
}

func TestMessageCountsSinceToday(t *testing.T) {
	store := newTestStore(t)

	old := &Message{SenderID: 1, ReceiverID: 2, Content: "old", Timestamp: "2020-06-01 12:00:00"}
	if err := store.SaveMessage(old); err != nil {
		t.Fatalf("failed to save old message: %v", err)
	}
	fresh := &Message{SenderID: 1, ReceiverID: 2, Content: "fresh"}
	if err := store.SaveMessage(fresh); err != nil {
		t.Fatalf("failed to save fresh message: %v", err)
	}

	counts, err := store.MessageCounts()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if counts.Total != 2 {
		t.Errorf("expected total 2, got %d", counts.Total)
	}
	if counts.SinceToday != 1 {
		t.Errorf("expected 1 message since today, got %d", counts.SinceToday)
	}
}

func TestPurgeBetweenLeavesOtherPairsAlone(t *testing.T) {
	store := newTestStore(t)

	for _, m := range []*Message{
		{SenderID: 1, ReceiverID: 2, Content: "a"},
		{SenderID: 2, ReceiverID: 1, Content: "b"},
		{SenderID: 1, ReceiverID: 3, Content: "c"},
	} {
		if err := store.SaveMessage(m); err != nil {
			t.Fatalf("failed to save message: %v", err)
		}
	}

	if err := store.PurgeBetween(1, 2); err != nil {
		t.Fatalf("failed to purge: %v", err)
	}

	purged, err := store.MessagesBetween(1, 2)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(purged) != 0 {
		t.Errorf("expected pair (1,2) purged in both directions, got %+v", purged)
	}

	kept, err := store.MessagesBetween(1, 3)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(kept) != 1 {
		t.Errorf("expected pair (1,3) untouched, got %+v", kept)
	}
}

func TestEphemeralRows(t *testing.T) {
	store := newTestStore(t)

	if err := store.RegisterEphemeral(1, 2); err != nil {
		t.Fatalf("failed to register: %v", err)
	}
	// Re-registering the same pair is not an error.
	if err := store.RegisterEphemeral(1, 2); err != nil {
		t.Errorf("re-register should not fail: %v", err)
	}
	if err := store.RemoveEphemeral(1, 2); err != nil {
		t.Fatalf("failed to remove: %v", err)
	}
	if err := store.RemoveEphemeral(1, 2); err != nil {
		t.Errorf("removing an absent row should not fail: %v", err)
	}
}

func TestUpdateMessageContent(t *testing.T) {
	store := newTestStore(t)

	msg := &Message{SenderID: 1, ReceiverID: 2, Content: "before"}
	if err := store.SaveMessage(msg); err != nil {
		t.Fatalf("failed to save message: %v", err)
	}
	if err := store.UpdateMessageContent(msg.ID, "after"); err != nil {
		t.Fatalf("failed to update: %v", err)
	}

	got, err := store.MessagesBetween(1, 2)
	if err != nil {
		t.Fatalf("failed to read history: %v", err)
	}
	if len(got) != 1 || got[0].Content != "after" {
		t.Errorf("expected updated content, got %+v", got)
	}
}
