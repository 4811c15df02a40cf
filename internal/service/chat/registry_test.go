package chat

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestRegisterReplacesPreviousSession(t *testing.T) {
	r := NewRegistry()
	c1, c2 := &fakeConn{}, &fakeConn{}

	r.Register("alice", c1)
	r.Register("alice", c2)

	if !r.IsOnline("alice") {
		t.Fatal("alice should be online")
	}
	got, ok := r.GetSession("alice")
	if !ok || got != Conn(c2) {
		t.Fatalf("GetSession returned %v, want c2", got)
	}
	if !c1.isClosed() {
		t.Error("previous connection was not closed")
	}
	if c2.isClosed() {
		t.Error("new connection must stay open")
	}
}

func TestUnregisterUnknownUser(t *testing.T) {
	r := NewRegistry()
	r.Unregister("ghost")
	if r.IsOnline("ghost") {
		t.Fatal("ghost should be offline")
	}
}

func TestUnregisterConnKeepsReplacement(t *testing.T) {
	r := NewRegistry()
	c1, c2 := &fakeConn{}, &fakeConn{}
	r.Register("alice", c1)
	r.Register("alice", c2)

	if r.UnregisterConn("alice", c1) {
		t.Fatal("stale connection must not remove the replacement")
	}
	if !r.IsOnline("alice") {
		t.Fatal("alice should still be online")
	}
	if !r.UnregisterConn("alice", c2) {
		t.Fatal("current connection should be removed")
	}
	if r.IsOnline("alice") || !c2.isClosed() {
		t.Fatal("alice should be offline with c2 closed")
	}
}

func TestOnlineUsersSkipsInactive(t *testing.T) {
	r := NewRegistry()
	dead := &fakeConn{}
	r.Register("carol", &fakeConn{})
	r.Register("alice", &fakeConn{})
	r.Register("bob", dead)
	_ = dead.Close(1000, "")

	if got, want := r.OnlineUsers(), []string{"alice", "carol"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("OnlineUsers() = %v, want %v", got, want)
	}
	if r.IsOnline("bob") {
		t.Error("bob's connection is closed")
	}
	if n := r.Prune(); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if _, ok := r.GetSession("bob"); ok {
		t.Error("bob should be pruned")
	}
}

func TestSendTo(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{}
	r.Register("alice", c)

	if err := r.SendTo("alice", SystemMessage{Text: "hello"}); err != nil {
		t.Fatalf("SendTo: %v", err)
	}
	if got := c.last(t); got != (SystemMessage{Text: "hello"}) {
		t.Errorf("got %#v", got)
	}
	if err := r.SendTo("bob", SystemMessage{Text: "hello"}); !errors.Is(err, ErrUserOffline) {
		t.Errorf("SendTo offline = %v, want ErrUserOffline", err)
	}

	c.failSend = true
	if err := r.SendTo("alice", SystemMessage{Text: "again"}); err == nil || errors.Is(err, ErrUserOffline) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			user := fmt.Sprintf("user%d", i%5)
			c := &fakeConn{}
			r.Register(user, c)
			_ = r.SendTo(user, SystemMessage{Text: "ping"})
			_ = r.OnlineUsers()
			r.UnregisterConn(user, c)
		}(i)
	}
	wg.Wait()

	if got := r.OnlineUsers(); len(got) != 0 {
		t.Fatalf("expected no online users, got %v", got)
	}
}
