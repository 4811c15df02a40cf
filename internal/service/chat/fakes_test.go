package chat

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"direct_chat_server/internal/model"
	"direct_chat_server/pkg/errorx"
)

// fakeConn 记录所有写出的帧
type fakeConn struct {
	mu          sync.Mutex
	frames      [][]byte
	closed      bool
	closeCode   int
	closeReason string
	failSend    bool
}

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	if c.failSend {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, data)
	return nil
}

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("already closed")
	}
	c.closed = true
	c.closeCode = code
	c.closeReason = reason
	return nil
}

func (c *fakeConn) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

func (c *fakeConn) isClosed() bool {
	return !c.Active()
}

func (c *fakeConn) events(t *testing.T) []Event {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, 0, len(c.frames))
	for _, f := range c.frames {
		e, err := Decode(f)
		if err != nil {
			t.Fatalf("decode frame %s: %v", f, err)
		}
		out = append(out, e)
	}
	return out
}

func (c *fakeConn) last(t *testing.T) Event {
	t.Helper()
	events := c.events(t)
	if len(events) == 0 {
		t.Fatal("no events received")
	}
	return events[len(events)-1]
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

// fakeUsers 内存用户库
type fakeUsers struct {
	ids map[string]int64
}

func newFakeUsers(names ...string) *fakeUsers {
	u := &fakeUsers{ids: make(map[string]int64)}
	for i, n := range names {
		u.ids[n] = int64(i + 1)
	}
	return u
}

func (u *fakeUsers) ResolveID(_ context.Context, username string) (int64, error) {
	if id, ok := u.ids[username]; ok {
		return id, nil
	}
	return 0, errorx.New(errorx.CodeUserNotExist, "user not found")
}

func (u *fakeUsers) ResolveUsername(_ context.Context, id int64) (string, error) {
	for name, v := range u.ids {
		if v == id {
			return name, nil
		}
	}
	return "", errorx.New(errorx.CodeUserNotExist, "user not found")
}

// fakeMessages 内存消息库
type fakeMessages struct {
	mu       sync.Mutex
	nextId   int64
	clock    int64
	messages []*model.Message
	saveErr  error
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{clock: 1700000000000}
}

func (s *fakeMessages) Save(_ context.Context, senderId, recipientId int64, content string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.nextId++
	s.clock += 60000
	m := &model.Message{ID: s.nextId, SenderId: senderId, RecipientId: recipientId, Content: content, Timestamp: s.clock}
	s.messages = append(s.messages, m)
	copied := *m
	return &copied, nil
}

func (s *fakeMessages) UndeliveredFor(_ context.Context, userId int64) ([]*model.Message, error) {
	return s.filter(func(m *model.Message) bool { return m.RecipientId == userId && !m.Delivered }), nil
}

func (s *fakeMessages) Between(_ context.Context, a, b int64) ([]*model.Message, error) {
	return s.filter(func(m *model.Message) bool {
		return (m.SenderId == a && m.RecipientId == b) || (m.SenderId == b && m.RecipientId == a)
	}), nil
}

func (s *fakeMessages) MarkDelivered(_ context.Context, messageId int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == messageId {
			m.Delivered = true
		}
	}
	return nil
}

func (s *fakeMessages) filter(keep func(*model.Message) bool) []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Message, 0)
	for _, m := range s.messages {
		if keep(m) {
			copied := *m
			out = append(out, &copied)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func (s *fakeMessages) all() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out
}
