package service

import (
	"errors"
	"fmt"

	"github.com/JerryYuan4733/ragflow-tyh/internal/syncer"
)

var (
	// ErrNotFound marks a lookup of a record that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyTransferred marks a second transfer attempt for the same
	// chat message.
	ErrAlreadyTransferred = errors.New("message already transferred")

	// ErrNoDatasets marks a sync request from a team with no bound datasets.
	ErrNoDatasets = errors.New("team has no bound datasets")

	// ErrNoAssistant marks a chat request from a team that has not bound an
	// assistant yet.
	ErrNoAssistant = errors.New("team has no bound assistant")
)

// DuplicateError reports that a candidate question collides with existing
// knowledge. It carries enough payload for the caller to present a
// resolution choice instead of a bare rejection.
type DuplicateError struct {
	Result syncer.DuplicateResult
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("question duplicates %s match %s (similarity %.2f)",
		e.Result.MatchType, e.Result.ID, e.Result.Similarity)
}
