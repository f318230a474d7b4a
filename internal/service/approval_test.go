package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected typed error, got %v", err)
	require.Equal(t, code, appErr.Code)
}

func TestCheckSubmit(t *testing.T) {
	author := "faculty-1"

	require.NoError(t, checkSubmit(workflowItem{Status: models.StatusDraft, CreatedBy: author}, author))
	require.NoError(t, checkSubmit(workflowItem{Status: models.StatusRevisionRequested, CreatedBy: author}, author))

	err := checkSubmit(workflowItem{Status: models.StatusDraft, CreatedBy: author}, "faculty-2")
	requireCode(t, err, appErrors.ErrForbidden.Code)

	err = checkSubmit(workflowItem{Status: models.StatusPending, CreatedBy: author}, author)
	requireCode(t, err, appErrors.ErrConflict.Code)

	for _, status := range []models.ApprovalStatus{models.StatusApproved, models.StatusRejected, models.StatusRemovalPending} {
		err = checkSubmit(workflowItem{Status: status, CreatedBy: author}, author)
		requireCode(t, err, appErrors.ErrIllegalTransition.Code)
	}
}

func TestDecideTransitionFromPending(t *testing.T) {
	cases := []struct {
		decision models.ReviewDecision
		want     models.ApprovalStatus
	}{
		{models.DecisionApprove, models.StatusApproved},
		{models.DecisionReject, models.StatusRejected},
		{models.DecisionRequestRevision, models.StatusRevisionRequested},
	}
	for _, tc := range cases {
		to, deleteItem, err := decideTransition(models.StatusPending, tc.decision)
		require.NoError(t, err)
		require.False(t, deleteItem)
		require.Equal(t, tc.want, to)
	}
}

func TestDecideTransitionFromRemovalPending(t *testing.T) {
	_, deleteItem, err := decideTransition(models.StatusRemovalPending, models.DecisionApprove)
	require.NoError(t, err)
	require.True(t, deleteItem)

	to, deleteItem, err := decideTransition(models.StatusRemovalPending, models.DecisionReject)
	require.NoError(t, err)
	require.False(t, deleteItem)
	require.Equal(t, models.StatusApproved, to)

	_, _, err = decideTransition(models.StatusRemovalPending, models.DecisionRequestRevision)
	requireCode(t, err, appErrors.ErrIllegalTransition.Code)
}

func TestDecideTransitionRejectsNonReviewableStates(t *testing.T) {
	for _, status := range []models.ApprovalStatus{models.StatusDraft, models.StatusApproved, models.StatusRejected, models.StatusRevisionRequested} {
		_, _, err := decideTransition(status, models.DecisionApprove)
		requireCode(t, err, appErrors.ErrConflict.Code)
	}
}

func TestCheckRemovalRequest(t *testing.T) {
	author := "faculty-1"

	require.NoError(t, checkRemovalRequest(workflowItem{Status: models.StatusApproved, CreatedBy: author}, author))

	err := checkRemovalRequest(workflowItem{Status: models.StatusApproved, CreatedBy: author}, "faculty-2")
	requireCode(t, err, appErrors.ErrForbidden.Code)

	err = checkRemovalRequest(workflowItem{Status: models.StatusDraft, CreatedBy: author}, author)
	requireCode(t, err, appErrors.ErrIllegalTransition.Code)
}

func TestCheckDelete(t *testing.T) {
	author := "faculty-1"

	err := checkDelete(workflowItem{Status: models.StatusApproved, CreatedBy: author}, author, false)
	requireCode(t, err, appErrors.ErrConflict.Code)

	err = checkDelete(workflowItem{Status: models.StatusDraft, CreatedBy: author}, "faculty-2", true)
	requireCode(t, err, appErrors.ErrForbidden.Code)

	require.NoError(t, checkDelete(workflowItem{Status: models.StatusDraft, CreatedBy: author}, "admin-1", false))
	require.NoError(t, checkDelete(workflowItem{Status: models.StatusRejected, CreatedBy: author}, author, true))
}

func TestStatusForCreate(t *testing.T) {
	require.Equal(t, models.StatusApproved, statusForCreate(models.RoleAdmin))
	require.Equal(t, models.StatusDraft, statusForCreate(models.RoleFaculty))
}

func TestStatusForUpdate(t *testing.T) {
	approved := models.StatusApproved
	draft := models.StatusDraft

	status, err := statusForUpdate(models.RoleAdmin, nil, models.StatusPending)
	require.NoError(t, err)
	require.Equal(t, models.StatusApproved, status)

	status, err = statusForUpdate(models.RoleFaculty, nil, models.StatusDraft)
	require.NoError(t, err)
	require.Equal(t, models.StatusDraft, status)

	// Faculty asking for APPROVED lands in the review queue instead.
	status, err = statusForUpdate(models.RoleFaculty, &approved, models.StatusDraft)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, status)

	status, err = statusForUpdate(models.RoleAdmin, &draft, models.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, models.StatusDraft, status)

	bogus := models.ApprovalStatus("BOGUS")
	_, err = statusForUpdate(models.RoleAdmin, &bogus, models.StatusDraft)
	requireCode(t, err, appErrors.ErrValidation.Code)
}
