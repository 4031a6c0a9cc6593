package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"momentum/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ChatMessage is one message in a stored conversation
type ChatMessage struct {
	Role      string    `bson:"role" json:"role"` // "user" or "assistant"
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Conversation is a stored chat history document
type Conversation struct {
	ID        string        `bson:"_id" json:"id"`
	UserID    string        `bson:"userId" json:"user_id"`
	Title     string        `bson:"title" json:"title"`
	Messages  []ChatMessage `bson:"messages" json:"messages"`
	CreatedAt time.Time     `bson:"createdAt" json:"created_at"`
	UpdatedAt time.Time     `bson:"updatedAt" json:"updated_at"`
}

// ConversationService stores chat transcripts in MongoDB. The service is
// optional: with no MongoDB configured every method is a no-op, since chat
// still works without history.
type ConversationService struct {
	collection *mongo.Collection
}

// NewConversationService creates a new conversation service. db may be nil.
func NewConversationService(db *database.MongoDB) *ConversationService {
	if db == nil {
		log.Println("⚠️  MongoDB not configured, chat history disabled")
		return &ConversationService{}
	}
	return &ConversationService{
		collection: db.Collection(database.CollectionConversations),
	}
}

// Enabled reports whether chat history is being stored
func (s *ConversationService) Enabled() bool {
	return s.collection != nil
}

// AppendExchange stores one user/assistant exchange, creating the
// conversation on first use. The first user message becomes the title.
func (s *ConversationService) AppendExchange(ctx context.Context, conversationID, userID, userMessage, assistantReply string) error {
	if s.collection == nil {
		return nil
	}

	now := time.Now().UTC()
	messages := []ChatMessage{
		{Role: "user", Content: userMessage, Timestamp: now},
		{Role: "assistant", Content: assistantReply, Timestamp: now},
	}

	title := truncateRunes(userMessage, 80)

	filter := bson.M{"_id": conversationID, "userId": userID}
	update := bson.M{
		"$push": bson.M{"messages": bson.M{"$each": messages}},
		"$set":  bson.M{"updatedAt": now},
		"$setOnInsert": bson.M{
			"userId":    userID,
			"title":     title,
			"createdAt": now,
		},
	}

	_, err := s.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to store conversation: %w", err)
	}
	return nil
}

// RecentMessages returns the tail of a conversation for replay to the AI
// service. Without MongoDB, or for an unknown conversation, it returns an
// empty slice: history is an enrichment, never a precondition.
func (s *ConversationService) RecentMessages(ctx context.Context, userID, conversationID string, limit int) ([]ChatMessage, error) {
	if s.collection == nil || conversationID == "" {
		return []ChatMessage{}, nil
	}
	if limit <= 0 {
		limit = 10
	}

	opts := options.FindOne().SetProjection(bson.M{"messages": bson.M{"$slice": -limit}})

	var conv Conversation
	err := s.collection.FindOne(ctx, bson.M{"_id": conversationID, "userId": userID}, opts).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return []ChatMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return conv.Messages, nil
}

// GetConversation retrieves one conversation owned by the user
func (s *ConversationService) GetConversation(ctx context.Context, userID, conversationID string) (*Conversation, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("conversation %w", ErrNotFound)
	}

	var conv Conversation
	err := s.collection.FindOne(ctx, bson.M{"_id": conversationID, "userId": userID}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("conversation %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return &conv, nil
}

// ListConversations returns the user's conversations, newest first, without
// message bodies.
func (s *ConversationService) ListConversations(ctx context.Context, userID string, limit int64) ([]*Conversation, error) {
	if s.collection == nil {
		return []*Conversation{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.M{"updatedAt": -1}).
		SetLimit(limit).
		SetProjection(bson.M{"messages": 0})

	cursor, err := s.collection.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	conversations := []*Conversation{}
	if err := cursor.All(ctx, &conversations); err != nil {
		return nil, fmt.Errorf("failed to decode conversations: %w", err)
	}
	return conversations, nil
}

// DeleteConversation removes one conversation
func (s *ConversationService) DeleteConversation(ctx context.Context, userID, conversationID string) error {
	if s.collection == nil {
		return fmt.Errorf("conversation %w", ErrNotFound)
	}

	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": conversationID, "userId": userID})
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("conversation %w", ErrNotFound)
	}
	return nil
}
