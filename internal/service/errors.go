package service

import (
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/workflow"
	apperrors "github.com/spec-kit/maintenance-service/pkg/util/errorutil"
)

// translateWorkflowError maps an engine failure onto the API error vocabulary.
func translateWorkflowError(err error) error {
	var wfErr *workflow.Error
	if !errors.As(err, &wfErr) {
		return apperrors.MapError(err)
	}
	switch wfErr.Kind {
	case workflow.KindPermissionDenied:
		return apperrors.NewPermissionDenied(wfErr.Error())
	case workflow.KindInvalidTransition:
		allowed := make([]string, len(wfErr.Allowed))
		for i, s := range wfErr.Allowed {
			allowed[i] = string(s)
		}
		return apperrors.NewInvalidTransition(wfErr.Error(), map[string]any{
			"from":    string(wfErr.From),
			"to":      string(wfErr.To),
			"allowed": allowed,
		})
	case workflow.KindMissingData:
		return apperrors.NewMissingData(wfErr.Error())
	case workflow.KindValidation:
		return apperrors.NewValidationError(wfErr.Error(), nil)
	default:
		return apperrors.MapError(err)
	}
}

// lookupError turns a repository miss into a 404 for resource.
func lookupError(resource, id string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

func persistError(requestID string, err error) error {
	if errors.Is(err, repository.ErrStaleStatus) {
		return apperrors.NewConflict("request was modified concurrently; reload and retry", map[string]any{"request_id": requestID})
	}
	return apperrors.MapError(err)
}
