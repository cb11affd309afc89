package service

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/grievance-service/internal/domain"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// MaxReplyLength bounds the admin reply attached on resolution, counted in characters.
const MaxReplyLength = 500

// PlanStatusUpdate computes the lifecycle columns for moving a complaint to requested.
// Any status may be set from any other. Resolving requires a reply; leaving resolved
// clears the reply and timestamp so non-resolved complaints never carry them.
func PlanStatusUpdate(requested domain.ComplaintStatus, reply string, now time.Time) (domain.StatusChange, error) {
	if !requested.Valid() {
		return domain.StatusChange{}, apperrors.NewValidationError("invalid status", map[string]any{
			"allowed": domain.ComplaintStatuses,
		})
	}
	if requested != domain.ComplaintStatusResolved {
		return domain.StatusChange{Status: requested}, nil
	}

	if strings.TrimSpace(reply) == "" {
		return domain.StatusChange{}, apperrors.NewValidationError("reply required", nil)
	}
	if utf8.RuneCountInString(reply) > MaxReplyLength {
		return domain.StatusChange{}, apperrors.NewValidationError("reply too long", map[string]any{
			"max_length": MaxReplyLength,
		})
	}
	resolvedAt := now
	return domain.StatusChange{
		Status:     domain.ComplaintStatusResolved,
		AdminReply: reply,
		ResolvedAt: &resolvedAt,
	}, nil
}

// normalizeContent trims title and description and rejects blanks, for both creation and edits.
func normalizeContent(title, description string) (string, string, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return "", "", apperrors.NewValidationError("title and description required", nil)
	}
	return title, description, nil
}
