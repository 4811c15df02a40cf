package message

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	dao "direct_chat_server/internal/dao/mysql"
	"direct_chat_server/internal/dao/mysql/repository"
	"direct_chat_server/internal/infrastructure/mq"
)

type recordingJournal struct {
	mu      sync.Mutex
	records []mq.Record
}

func (j *recordingJournal) Publish(_ context.Context, r mq.Record) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, r)
}

func (j *recordingJournal) Close() error { return nil }

func newTestService(t *testing.T) (*messageService, *recordingJournal) {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := dao.OpenSqlite("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	journal := &recordingJournal{}
	svc := NewMessageService(repository.NewRepositories(db), journal)

	clock := time.UnixMilli(1700000000000)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, journal
}

func TestSaveUndeliveredAndMark(t *testing.T) {
	ctx := context.Background()
	svc, journal := newTestService(t)

	first, err := svc.Save(ctx, 1, 2, "hello")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Save(ctx, 1, 2, "again")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == second.ID || first.Delivered {
		t.Fatalf("unexpected messages %+v %+v", first, second)
	}

	pending, err := svc.UndeliveredFor(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 || pending[0].Content != "hello" || pending[1].Content != "again" {
		t.Fatalf("unexpected pending %+v", pending)
	}

	for i := 0; i < 2; i++ {
		if err := svc.MarkDelivered(ctx, first.ID); err != nil {
			t.Fatalf("MarkDelivered #%d: %v", i+1, err)
		}
	}
	pending, _ = svc.UndeliveredFor(ctx, 2)
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("after mark: %+v", pending)
	}

	if len(journal.records) != 3 ||
		journal.records[0].Event != mq.EventMessageSaved ||
		journal.records[2].Event != mq.EventMessageDelivered ||
		journal.records[2].MessageId != first.ID {
		t.Fatalf("unexpected journal %+v", journal.records)
	}
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	_, _ = svc.Save(ctx, 1, 2, "hi bob")
	_, _ = svc.Save(ctx, 2, 1, "hi alice")

	lines, err := svc.History(ctx, "alice", 1, "bob", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %+v", lines)
	}
	if lines[0].Sender != "alice" || lines[0].Recipient != "bob" || lines[1].Sender != "bob" {
		t.Errorf("unexpected lines %+v", lines)
	}

	between, _ := svc.Between(ctx, 2, 1)
	if len(between) != 2 || between[0].Content != "hi bob" {
		t.Errorf("Between(2,1) = %+v", between)
	}
}
