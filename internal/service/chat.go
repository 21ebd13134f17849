package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	chatHistoryLimit = 50
	chatTTL          = 24 * time.Hour
)

const chatSystemPrompt = `You are Savorly's kitchen assistant. Answer cooking and cocktail questions concisely.
When you give quantities, give both metric and US customary units.`

// ChatReply is the result of one chat turn.
type ChatReply struct {
	SessionID string  `json:"session_id"`
	Reply     Message `json:"reply"`
}

// ChatService keeps short conversations with the text model in Redis.
type ChatService struct {
	generator TextGenerator
	redis     *redis.Client
	logger    *zap.Logger
}

func NewChatService(generator TextGenerator, redisClient *redis.Client, logger *zap.Logger) *ChatService {
	return &ChatService{generator: generator, redis: redisClient, logger: logger}
}

func chatKey(session string) string      { return "chat:" + session }
func chatOwnerKey(session string) string { return "chat-owner:" + session }

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func checkSessionID(sessionID string) error {
	if !sessionIDPattern.MatchString(sessionID) {
		return fmt.Errorf("%w: session id must be 1-64 letters, digits, '-' or '_'", ErrInvalidInput)
	}
	return nil
}

// claim binds a session to its first user; other users get ErrForbidden.
func (s *ChatService) claim(ctx context.Context, sessionID string, userID uuid.UUID) error {
	key := chatOwnerKey(sessionID)
	ok, err := s.redis.SetNX(ctx, key, userID.String(), chatTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to claim chat session: %w", err)
	}
	if ok {
		return nil
	}
	owner, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read chat session owner: %w", err)
	}
	if owner != userID.String() {
		return ErrForbidden
	}
	return nil
}

// Send appends text to the session, asks the model and stores its reply.
// An empty sessionID starts a new session.
func (s *ChatService) Send(ctx context.Context, sessionID string, userID uuid.UUID, text string) (*ChatReply, error) {
	if sessionID != "" {
		if err := checkSessionID(sessionID); err != nil {
			return nil, err
		}
	}
	if s.redis == nil || s.generator == nil {
		return nil, fmt.Errorf("%w: chat is not configured", ErrUnavailable)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrInvalidInput)
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := s.claim(ctx, sessionID, userID); err != nil {
		return nil, err
	}

	history, err := s.history(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	userMsg := Message{Role: RoleUser, Content: text}
	conversation := append([]Message{{Role: RoleSystem, Content: chatSystemPrompt}}, history...)
	conversation = append(conversation, userMsg)

	content, err := s.generator.Complete(ctx, conversation, false)
	if err != nil {
		return nil, err
	}
	reply := Message{Role: RoleAssistant, Content: strings.TrimSpace(content)}

	if err := s.append(ctx, sessionID, userMsg, reply); err != nil {
		return nil, err
	}
	s.logger.Debug("Chat turn stored", zap.String("session_id", sessionID), zap.Int("history", len(history)+2))
	return &ChatReply{SessionID: sessionID, Reply: reply}, nil
}

func (s *ChatService) append(ctx context.Context, sessionID string, msgs ...Message) error {
	values := make([]any, len(msgs))
	for i, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("failed to marshal chat message: %w", err)
		}
		values[i] = data
	}
	key := chatKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -chatHistoryLimit, -1)
	pipe.Expire(ctx, key, chatTTL)
	pipe.Expire(ctx, chatOwnerKey(sessionID), chatTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store chat messages: %w", err)
	}
	return nil
}

func (s *ChatService) history(ctx context.Context, sessionID string) ([]Message, error) {
	raw, err := s.redis.LRange(ctx, chatKey(sessionID), 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			s.logger.Warn("Skipping malformed chat message", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// History returns the stored messages of a session owned by userID.
func (s *ChatService) History(ctx context.Context, sessionID string, userID uuid.UUID) ([]Message, error) {
	if err := checkSessionID(sessionID); err != nil {
		return nil, err
	}
	if s.redis == nil {
		return nil, fmt.Errorf("%w: chat is not configured", ErrUnavailable)
	}
	owner, err := s.redis.Get(ctx, chatOwnerKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chat session owner: %w", err)
	}
	if owner != userID.String() {
		return nil, ErrForbidden
	}
	return s.history(ctx, sessionID)
}
