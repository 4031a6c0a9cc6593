package services

import (
	"context"
	"fmt"
	"log"

	"momentum/internal/models"

	"github.com/google/uuid"
)

// ChatService runs the full chat flow: assemble context, forward to the AI
// service, dispatch the returned actions, persist the transcript.
type ChatService struct {
	ai            *AIClient
	builder       *ContextBuilder
	dispatcher    *Dispatcher
	conversations *ConversationService
	users         *UserService
	conns         *ConnectionManager
}

// NewChatService creates a new chat service
func NewChatService(ai *AIClient, builder *ContextBuilder, dispatcher *Dispatcher, conversations *ConversationService, users *UserService, conns *ConnectionManager) *ChatService {
	return &ChatService{
		ai:            ai,
		builder:       builder,
		dispatcher:    dispatcher,
		conversations: conversations,
		users:         users,
		conns:         conns,
	}
}

// chatHistoryLimit caps how many stored messages are replayed per request
const chatHistoryLimit = 10

// historyTurns converts stored messages into the replay shape the AI
// service expects.
func historyTurns(messages []ChatMessage) []models.ChatTurn {
	turns := make([]models.ChatTurn, 0, len(messages))
	for _, m := range messages {
		turns = append(turns, models.ChatTurn{Role: m.Role, Content: m.Content})
	}
	return turns
}

// HandleMessage processes one user message end to end. Action failures are
// reported per action; only AI service failures abort the request.
func (s *ChatService) HandleMessage(ctx context.Context, userID string, req *models.ChatRequest) (*models.ChatResponse, error) {
	if req.Message == "" {
		return nil, fmt.Errorf("message is required")
	}

	snapshot, err := s.builder.Build(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble context: %w", err)
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	// Name and history enrich the prompt; neither blocks the request
	var userName string
	if user, err := s.users.GetUserByID(ctx, userID); err == nil {
		userName = user.FullName()
	} else {
		log.Printf("⚠️  Failed to load user %s for chat: %v", userID, err)
	}

	history, err := s.conversations.RecentMessages(ctx, userID, req.ConversationID, chatHistoryLimit)
	if err != nil {
		log.Printf("⚠️  Failed to load chat history for %s: %v", userID, err)
		history = nil
	}

	aiResp, err := s.ai.Chat(ctx, &models.AIChatRequest{
		UserID:              userID,
		UserName:            userName,
		Message:             req.Message,
		ConversationID:      conversationID,
		ConversationHistory: historyTurns(history),
		Context:             snapshot,
	})
	if err != nil {
		return nil, err
	}
	if aiResp.ConversationID != "" {
		conversationID = aiResp.ConversationID
	}

	results := s.dispatcher.Dispatch(ctx, userID, aiResp.Actions)

	// History is best-effort
	if err := s.conversations.AppendExchange(ctx, conversationID, userID, req.Message, aiResp.Response); err != nil {
		log.Printf("⚠️  Failed to store chat history for %s: %v", userID, err)
	}

	resp := &models.ChatResponse{
		Success:        true,
		Response:       aiResp.Response,
		ConversationID: conversationID,
		ActionResults:  results,
	}
	if s.conns != nil {
		s.conns.SendToUser(userID, models.ServerMessage{Type: models.EventChat, Payload: resp})
	}
	return resp, nil
}
