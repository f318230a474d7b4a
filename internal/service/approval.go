package service

import (
	"fmt"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

// approval.go holds the pure transition rules of the review workflow,
// shared by the content and assessment services. Persistence stays in
// the repositories; everything here is a decision over current state.

// workflowItem is the minimal view of a reviewable row.
type workflowItem struct {
	Status    models.ApprovalStatus
	CreatedBy string
}

// checkSubmit validates an author submitting an item for review. Only
// the author may submit, and only from DRAFT or REVISION_REQUESTED.
// An item already in review is a conflict, not a no-op, so clients
// cannot mistake a stale double-click for progress.
func checkSubmit(item workflowItem, actorID string) error {
	if item.CreatedBy != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can submit this item for review")
	}
	switch item.Status {
	case models.StatusDraft, models.StatusRevisionRequested:
		return nil
	case models.StatusPending:
		return appErrors.Clone(appErrors.ErrConflict, "item is already awaiting review")
	default:
		return appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("cannot submit item in status %s", item.Status))
	}
}

// decideTransition maps a review decision onto a target status.
// The returned delete flag is set when approving a removal request,
// which erases the row instead of changing its status.
func decideTransition(current models.ApprovalStatus, decision models.ReviewDecision) (to models.ApprovalStatus, deleteItem bool, err error) {
	switch current {
	case models.StatusPending:
		switch decision {
		case models.DecisionApprove:
			return models.StatusApproved, false, nil
		case models.DecisionReject:
			return models.StatusRejected, false, nil
		case models.DecisionRequestRevision:
			return models.StatusRevisionRequested, false, nil
		}
	case models.StatusRemovalPending:
		switch decision {
		case models.DecisionApprove:
			return "", true, nil
		case models.DecisionReject:
			// Rejecting a removal restores the published item.
			return models.StatusApproved, false, nil
		case models.DecisionRequestRevision:
			return "", false, appErrors.Clone(appErrors.ErrIllegalTransition,
				"cannot request revision on a removal request")
		}
	default:
		return "", false, appErrors.Clone(appErrors.ErrConflict,
			fmt.Sprintf("item in status %s is not awaiting review", current))
	}
	return "", false, appErrors.Clone(appErrors.ErrValidation, "unknown review decision")
}

// checkRemovalRequest validates an author asking to take down a
// published item. Only the author may ask, and only for APPROVED items.
func checkRemovalRequest(item workflowItem, actorID string) error {
	if item.CreatedBy != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can request removal")
	}
	if item.Status != models.StatusApproved {
		return appErrors.Clone(appErrors.ErrIllegalTransition,
			fmt.Sprintf("removal can only be requested for approved items, not %s", item.Status))
	}
	return nil
}

// checkDelete validates a hard delete. Published items must go through
// the removal workflow. When onlyOwn is set (faculty), non-authors are
// rejected.
func checkDelete(item workflowItem, actorID string, onlyOwn bool) error {
	if item.Status == models.StatusApproved {
		return appErrors.Clone(appErrors.ErrConflict,
			"approved items cannot be deleted directly, request removal instead")
	}
	if onlyOwn && item.CreatedBy != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete items authored by someone else")
	}
	return nil
}

// statusForCreate picks the initial status for a new item. Admin writes
// publish immediately; faculty drafts start in DRAFT.
func statusForCreate(role models.UserRole) models.ApprovalStatus {
	if role == models.RoleAdmin {
		return models.StatusApproved
	}
	return models.StatusDraft
}

// statusForUpdate resolves the status after an edit. Faculty cannot
// self-publish: a requested APPROVED is downgraded to PENDING. Admin
// edits keep or set whatever was asked, defaulting to auto-approval of
// the edited item.
func statusForUpdate(role models.UserRole, requested *models.ApprovalStatus, current models.ApprovalStatus) (models.ApprovalStatus, error) {
	if requested == nil {
		if role == models.RoleAdmin {
			return models.StatusApproved, nil
		}
		return current, nil
	}
	if !requested.Valid() {
		return "", appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	if role != models.RoleAdmin && *requested == models.StatusApproved {
		return models.StatusPending, nil
	}
	return *requested, nil
}
