package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestTranscriptStore(t *testing.T) *TranscriptStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTranscriptStore(client, time.Hour)
}

func TestTranscriptStoreAppendAndList(t *testing.T) {
	store := newTestTranscriptStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "conv-1", TranscriptMessage{Role: ChatRoleUser, Body: "hello"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "conv-1", TranscriptMessage{Role: ChatRoleAssistant, Body: "hi there"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	messages, err := store.List(ctx, "conv-1", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len = %d, want 2", len(messages))
	}
	if messages[0].Role != ChatRoleUser || messages[0].Body != "hello" {
		t.Errorf("first = %+v", messages[0])
	}
	if messages[1].Role != ChatRoleAssistant || messages[1].Body != "hi there" {
		t.Errorf("second = %+v", messages[1])
	}
	if messages[0].ID == "" || messages[0].Timestamp.IsZero() {
		t.Error("append should fill id and timestamp")
	}
}

func TestTranscriptStoreListLimit(t *testing.T) {
	store := newTestTranscriptStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		body := string(rune('a' + i))
		if err := store.Append(ctx, "conv-1", TranscriptMessage{Role: ChatRoleUser, Body: body}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	messages, err := store.List(ctx, "conv-1", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("len = %d, want the last 2", len(messages))
	}
	if messages[0].Body != "d" || messages[1].Body != "e" {
		t.Errorf("messages = %v %v, want d e", messages[0].Body, messages[1].Body)
	}
}

func TestTranscriptStoreIsolatesConversations(t *testing.T) {
	store := newTestTranscriptStore(t)
	ctx := context.Background()

	if err := store.Append(ctx, "conv-1", TranscriptMessage{Role: ChatRoleUser, Body: "one"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, "conv-2", TranscriptMessage{Role: ChatRoleUser, Body: "two"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	messages, err := store.List(ctx, "conv-2", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 1 || messages[0].Body != "two" {
		t.Fatalf("messages = %+v, want only conv-2 turns", messages)
	}
}

func TestTranscriptStoreHasAssistantMessage(t *testing.T) {
	store := newTestTranscriptStore(t)
	ctx := context.Background()

	has, err := store.HasAssistantMessage(ctx, "conv-1")
	if err != nil || has {
		t.Fatalf("has = %v err = %v, want false nil", has, err)
	}

	if err := store.Append(ctx, "conv-1", TranscriptMessage{Role: ChatRoleAssistant, Body: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	has, err = store.HasAssistantMessage(ctx, "conv-1")
	if err != nil || !has {
		t.Fatalf("has = %v err = %v, want true nil", has, err)
	}
}

func TestTranscriptStoreNilSafe(t *testing.T) {
	var store *TranscriptStore
	if err := store.Append(context.Background(), "conv-1", TranscriptMessage{}); err != nil {
		t.Fatalf("nil store append should be a no-op, got %v", err)
	}
	messages, err := store.List(context.Background(), "conv-1", 0)
	if err != nil || messages != nil {
		t.Fatalf("nil store list = %v %v", messages, err)
	}
}
