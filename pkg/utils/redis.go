package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"hireflow/internal/config"
	"hireflow/internal/logging"
)

// RedisClient wraps the Redis client with interview conversation history
// management and the server-side violation debounce ledger.
type RedisClient struct {
	client *redis.Client
	config *config.Config
	logger logging.Logger
}

// ConversationEntry represents a single interview conversation entry
type ConversationEntry struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationHistory represents the complete interview conversation for
// one application, used as LLM context for subsequent turns.
type ConversationHistory struct {
	ApplicationID string              `json:"application_id"`
	Entries       []ConversationEntry `json:"entries"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// NewRedisClient creates a new Redis client instance
func NewRedisClient(cfg *config.Config) *RedisClient {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		// Fallback to default configuration
		opts = &redis.Options{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		}
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	return &RedisClient{
		client: client,
		config: cfg,
		logger: logging.GetGlobalLogger(),
	}
}

// Ping tests the Redis connection
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// AppendConversationEntry appends one turn to the interview history for
// an application, creating the history if it does not exist yet.
func (r *RedisClient) AppendConversationEntry(ctx context.Context, applicationID, role, content string) error {
	key := r.historyKey(applicationID)

	history, err := r.GetConversationHistory(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation history: %w", err)
	}
	if history == nil {
		now := time.Now()
		history = &ConversationHistory{
			ApplicationID: applicationID,
			CreatedAt:     now,
		}
	}

	history.Entries = append(history.Entries, ConversationEntry{
		ID:        GenerateRequestID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	history.UpdatedAt = time.Now()

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}

	if err := r.client.Set(ctx, key, historyJSON, r.config.Interview.HistoryTTL).Err(); err != nil {
		return fmt.Errorf("failed to store conversation history: %w", err)
	}

	return nil
}

// GetConversationHistory returns the stored history for an application,
// or nil when no conversation has happened yet.
func (r *RedisClient) GetConversationHistory(ctx context.Context, applicationID string) (*ConversationHistory, error) {
	key := r.historyKey(applicationID)

	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}

	var history ConversationHistory
	if err := json.Unmarshal([]byte(data), &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}

	return &history, nil
}

// DeleteConversationHistory removes the history when an application
// reaches a terminal state.
func (r *RedisClient) DeleteConversationHistory(ctx context.Context, applicationID string) error {
	return r.client.Del(ctx, r.historyKey(applicationID)).Err()
}

// DebounceViolation marks a violation report for an application inside
// the debounce window. It returns true when the report is the first one
// in the window and should be counted; duplicates within the window
// return false. Clients debounce too, so this only guards against
// double-fired browser events that slipped through.
func (r *RedisClient) DebounceViolation(ctx context.Context, applicationID string, window time.Duration) (bool, error) {
	key := fmt.Sprintf("violation_debounce:%s", applicationID)

	ok, err := r.client.SetNX(ctx, key, time.Now().UnixMilli(), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set debounce key: %w", err)
	}

	return ok, nil
}

func (r *RedisClient) historyKey(applicationID string) string {
	return fmt.Sprintf("interview_history:%s", applicationID)
}
