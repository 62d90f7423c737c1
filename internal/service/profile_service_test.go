package service

import (
	"context"
	"testing"

	"ischolar/internal/model"
	"ischolar/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileMergesNonEmptyFields(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		FirstName: "Ana", LastName: "Reyes",
		Campus: "Main Campus", Role: model.RoleStudent,
	}
	profiles := newFakeProfileRepo(student)
	svc := NewProfileService(profiles, &fakeAuditRepo{})

	updated, err := svc.UpdateProfile(context.Background(), "student-1", UpdateProfileRequest{
		StudentNumber: "2023-00123",
		Course:        "BS Computer Science",
	})
	require.NoError(t, err)
	assert.Equal(t, "2023-00123", updated.StudentNumber)
	assert.Equal(t, "BS Computer Science", updated.Course)
	// Untouched fields keep their values
	assert.Equal(t, "Ana", updated.FirstName)
	assert.Equal(t, "Main Campus", updated.Campus)
}

func TestGetByUserIDNotFound(t *testing.T) {
	svc := NewProfileService(newFakeProfileRepo(), &fakeAuditRepo{})

	_, err := svc.GetByUserID(context.Background(), "ghost")
	assert.True(t, apperr.HasKind(err, apperr.KindNotFound))
}

func TestAutoVerifyStaffAccount(t *testing.T) {
	reviewer := &model.Profile{
		UserID: "rev-1", Email: "reviewer@ischolar.test",
		Role: model.RoleReviewer, VerificationStatus: model.VerificationPending,
	}
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationPending,
	}
	profiles := newFakeProfileRepo(reviewer, student)
	audits := &fakeAuditRepo{}
	svc := NewProfileService(profiles, audits)

	require.NoError(t, svc.AutoVerifyStaffAccount(context.Background(), "rev-1"))
	stored, err := profiles.GetByID(context.Background(), reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationVerified, stored.VerificationStatus)

	entries := audits.byAction(model.ActionStaffAutoVerify)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ActorID)

	// Students are never auto-verified
	require.NoError(t, svc.AutoVerifyStaffAccount(context.Background(), "student-1"))
	stored, err = profiles.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationPending, stored.VerificationStatus)

	// Idempotent for already-verified staff: no second audit row
	require.NoError(t, svc.AutoVerifyStaffAccount(context.Background(), "rev-1"))
	assert.Len(t, audits.byAction(model.ActionStaffAutoVerify), 1)

	// Unknown principals are a no-op, not an error
	assert.NoError(t, svc.AutoVerifyStaffAccount(context.Background(), "ghost"))
}
