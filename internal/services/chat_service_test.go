package services

import (
	"context"
	"testing"
	"time"
)

func TestHistoryTurns_MapsStoredMessages(t *testing.T) {
	now := time.Now().UTC()
	messages := []ChatMessage{
		{Role: "user", Content: "When is my next exam?", Timestamp: now},
		{Role: "assistant", Content: "Databases, on Friday.", Timestamp: now},
	}

	turns := historyTurns(messages)
	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != "user" || turns[0].Content != "When is my next exam?" {
		t.Errorf("Unexpected first turn: %+v", turns[0])
	}
	if turns[1].Role != "assistant" || turns[1].Content != "Databases, on Friday." {
		t.Errorf("Unexpected second turn: %+v", turns[1])
	}
}

func TestHistoryTurns_EmptyHistory(t *testing.T) {
	if turns := historyTurns(nil); len(turns) != 0 {
		t.Errorf("Expected no turns for empty history, got %d", len(turns))
	}
}

func TestRecentMessages_WithoutMongoReturnsEmpty(t *testing.T) {
	conversations := NewConversationService(nil)

	messages, err := conversations.RecentMessages(context.Background(), "user-1", "conv-1", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected empty history without MongoDB, got %d messages", len(messages))
	}
}

func TestRecentMessages_BlankConversationReturnsEmpty(t *testing.T) {
	conversations := NewConversationService(nil)

	messages, err := conversations.RecentMessages(context.Background(), "user-1", "", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected empty history for a fresh conversation, got %d messages", len(messages))
	}
}
