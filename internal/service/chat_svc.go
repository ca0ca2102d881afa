package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
)

// ChatService proxies the remote engine's chat assistant for a team. The
// assistant binding lives in TeamConfig; sessions and completions are
// engine-owned.
type ChatService struct {
	configRepo *repository.TeamConfigRepository
	client     *engine.Client
	logger     *slog.Logger
}

func NewChatService(configRepo *repository.TeamConfigRepository, client *engine.Client) *ChatService {
	return &ChatService{
		configRepo: configRepo,
		client:     client,
		logger:     slog.Default().With("service", "chat"),
	}
}

// AssistantID resolves the team's bound assistant.
func (s *ChatService) AssistantID(ctx context.Context, teamID uuid.UUID) (string, error) {
	cfg, err := s.configRepo.FindByTeam(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("load team config: %w", err)
	}
	if cfg == nil || cfg.AssistantID == "" {
		return "", ErrNoAssistant
	}
	return cfg.AssistantID, nil
}

// BindAssistant verifies the assistant exists on the engine, then stores
// the binding.
func (s *ChatService) BindAssistant(ctx context.Context, teamID uuid.UUID, assistantID string) (*model.TeamConfig, error) {
	assistants, err := s.client.ListAssistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list assistants: %w", err)
	}

	var name string
	found := false
	for _, a := range assistants {
		if a.ID == assistantID {
			name = a.Name
			found = true
			break
		}
	}
	if !found {
		return nil, ErrNotFound
	}

	cfg := &model.TeamConfig{
		TeamID:        teamID,
		AssistantID:   assistantID,
		AssistantName: name,
	}
	if err := s.configRepo.Upsert(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *ChatService) StartSession(ctx context.Context, teamID uuid.UUID, name string) (*engine.Session, error) {
	chatID, err := s.AssistantID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.client.CreateSession(ctx, chatID, name)
}

func (s *ChatService) EndSession(ctx context.Context, teamID uuid.UUID, sessionID string) error {
	chatID, err := s.AssistantID(ctx, teamID)
	if err != nil {
		return err
	}
	return s.client.DeleteSession(ctx, chatID, sessionID)
}

// Ask streams the assistant's answer chunks through fn.
func (s *ChatService) Ask(ctx context.Context, teamID uuid.UUID, sessionID, question string, fn func(engine.CompletionChunk) error) error {
	chatID, err := s.AssistantID(ctx, teamID)
	if err != nil {
		return err
	}
	s.logger.Info("completion start", "team_id", teamID, "session_id", sessionID)
	return s.client.CompletionStream(ctx, chatID, sessionID, question, fn)
}
