package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JerryYuan4733/ragflow-tyh/internal/model"
	"github.com/JerryYuan4733/ragflow-tyh/internal/pkg/redis"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
)

const datasetIDsCacheTTL = 5 * time.Minute

// TeamDatasetService resolves team→dataset bindings, caching the id list in
// Redis since the duplicate detector reads it on every QA admission. The
// cache is optional: without Redis every call hits the database.
type TeamDatasetService struct {
	repo   *repository.TeamDatasetRepository
	cache  *redis.Client
	logger *slog.Logger
}

func NewTeamDatasetService(repo *repository.TeamDatasetRepository, cache *redis.Client) *TeamDatasetService {
	return &TeamDatasetService{
		repo:   repo,
		cache:  cache,
		logger: slog.Default().With("service", "team_dataset"),
	}
}

func (s *TeamDatasetService) DatasetIDs(ctx context.Context, teamID uuid.UUID) ([]string, error) {
	key := "team_datasets:" + teamID.String()
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key); err == nil {
			var ids []string
			if json.Unmarshal([]byte(raw), &ids) == nil {
				return ids, nil
			}
		} else if !redis.IsNil(err) {
			s.logger.Warn("dataset cache read failed", "error", err)
		}
	}

	ids, err := s.repo.DatasetIDs(ctx, teamID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(ids); err == nil {
			if err := s.cache.Set(ctx, key, raw, datasetIDsCacheTTL); err != nil {
				s.logger.Warn("dataset cache write failed", "error", err)
			}
		}
	}
	return ids, nil
}

func (s *TeamDatasetService) NamesByID(ctx context.Context, datasetIDs []string) (map[string]string, error) {
	return s.repo.NamesByID(ctx, datasetIDs)
}

func (s *TeamDatasetService) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]model.TeamDataset, error) {
	return s.repo.ListByTeam(ctx, teamID)
}

func (s *TeamDatasetService) Bind(ctx context.Context, binding *model.TeamDataset) error {
	if err := s.repo.Bind(ctx, binding); err != nil {
		return err
	}
	s.invalidate(ctx, binding.TeamID)
	return nil
}

func (s *TeamDatasetService) Unbind(ctx context.Context, teamID uuid.UUID, datasetID string) error {
	if err := s.repo.Unbind(ctx, teamID, datasetID); err != nil {
		return err
	}
	s.invalidate(ctx, teamID)
	return nil
}

func (s *TeamDatasetService) invalidate(ctx context.Context, teamID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, "team_datasets:"+teamID.String()); err != nil {
		s.logger.Warn("dataset cache invalidation failed", "error", err)
	}
}
