package hub

import (
	"context"
	"testing"
)

func newTestClient() *Client {
	return NewClient(context.Background(), nil, nil, nil)
}

func TestBindLookupUnbind(t *testing.T) {
	reg := NewSessionRegistry()
	c := newTestClient()

	if _, ok := reg.Lookup(c); ok {
		t.Fatal("lookup of unbound connection should report absent")
	}

	reg.Bind(c, Session{UserID: 7, Username: "alice", FullName: "Alice A"})
	s, ok := reg.Lookup(c)
	if !ok {
		t.Fatal("lookup after bind should find the session")
	}
	if s.UserID != 7 || s.Username != "alice" {
		t.Errorf("unexpected session %+v", s)
	}

	reg.Unbind(c)
	if _, ok := reg.Lookup(c); ok {
		t.Fatal("lookup after unbind should report absent")
	}
}

func TestBindOverwritesPriorSession(t *testing.T) {
	reg := NewSessionRegistry()
	c := newTestClient()

	reg.Bind(c, Session{UserID: 1, Username: "alice"})
	reg.Bind(c, Session{UserID: 2, Username: "bob"})

	s, ok := reg.Lookup(c)
	if !ok || s.UserID != 2 {
		t.Fatalf("expected rebinding to replace the session, got %+v ok=%v", s, ok)
	}
	if reg.Len() != 1 {
		t.Errorf("expected a single entry for the connection, got %d", reg.Len())
	}
}

func TestFindAllByUserID(t *testing.T) {
	reg := NewSessionRegistry()
	a1, a2, b := newTestClient(), newTestClient(), newTestClient()

	reg.Bind(a1, Session{UserID: 1, Username: "alice"})
	reg.Bind(a2, Session{UserID: 1, Username: "alice"})
	reg.Bind(b, Session{UserID: 2, Username: "bob"})

	got := reg.FindAllByUserID(1)
	if len(got) != 2 {
		t.Fatalf("expected 2 connections for user 1, got %d", len(got))
	}
	for _, c := range got {
		if c != a1 && c != a2 {
			t.Errorf("FindAllByUserID returned a connection not bound to user 1")
		}
	}

	reg.Unbind(a1)
	if got := reg.FindAllByUserID(1); len(got) != 1 || got[0] != a2 {
		t.Errorf("expected only the remaining connection after unbind, got %d", len(got))
	}

	if got := reg.FindAllByUserID(99); len(got) != 0 {
		t.Errorf("expected no connections for unknown user, got %d", len(got))
	}
}
