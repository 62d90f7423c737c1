package service

import (
	"context"
	"strings"
	"testing"

	"ischolar/internal/model"
	"ischolar/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationFixture(t *testing.T, student *model.Profile) (
	VerificationService,
	*fakeProfileRepo,
	*fakeDocumentRepo,
	*fakeAuditRepo,
	*fakeNotificationRepo,
) {
	t.Helper()

	admin := &model.Profile{UserID: "admin-1", Email: "admin@ischolar.test", Role: model.RoleAdmin, VerificationStatus: model.VerificationVerified}
	reviewer := &model.Profile{UserID: "reviewer-1", Email: "reviewer@ischolar.test", Role: model.RoleReviewer, VerificationStatus: model.VerificationVerified}
	approver := &model.Profile{UserID: "approver-1", Email: "approver@ischolar.test", Role: model.RoleApprover, VerificationStatus: model.VerificationVerified}

	profiles := newFakeProfileRepo(student, admin, reviewer, approver)
	documents := newFakeDocumentRepo()
	audits := &fakeAuditRepo{}
	notifications := &fakeNotificationRepo{}
	notifier := NewNotificationService(notifications, profiles)

	svc := NewVerificationService(profiles, documents, audits, notifier, &fakeUploader{}, fakeTxManager{})
	return svc, profiles, documents, audits, notifications
}

func validUpload() UploadDocumentRequest {
	return UploadDocumentRequest{
		DocType:   model.DocTypeStudentID,
		FileName:  "student-id.jpg",
		MimeType:  "image/jpeg",
		SizeBytes: 1 * 1024 * 1024,
		File:      strings.NewReader("jpeg bytes"),
	}
}

func TestUploadDocumentMovesPendingProfileUnderReview(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		FirstName: "Ana", LastName: "Reyes",
		Role: model.RoleStudent, VerificationStatus: model.VerificationPending,
	}
	svc, profiles, _, _, notifications := newVerificationFixture(t, student)

	doc, err := svc.UploadDocument(context.Background(), "student-1", validUpload())
	require.NoError(t, err)
	assert.Equal(t, model.FileStatusPending, doc.Status)

	updated, err := profiles.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationUnderReview, updated.VerificationStatus)

	// One notification per ADMIN and REVIEWER profile; the APPROVER is not
	// part of the verification fan-out.
	var fanout []model.Notification
	for _, n := range notifications.notifications {
		if n.Type == model.NotifVerificationSubmitted {
			fanout = append(fanout, n)
		}
	}
	require.Len(t, fanout, 2)
	for _, n := range fanout {
		assert.Equal(t, "New Verification Submission", n.Title)
		assert.Contains(t, n.Body, "Ana Reyes")
	}
}

func TestUploadDocumentReentersReviewAfterRejection(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationRejected,
	}
	svc, profiles, _, _, notifications := newVerificationFixture(t, student)

	_, err := svc.UploadDocument(context.Background(), "student-1", validUpload())
	require.NoError(t, err)

	updated, err := profiles.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationUnderReview, updated.VerificationStatus)
	assert.NotEmpty(t, notifications.notifications)
}

func TestUploadDocumentNoFanoutWhileUnderReview(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationUnderReview,
	}
	svc, _, documents, _, notifications := newVerificationFixture(t, student)

	_, err := svc.UploadDocument(context.Background(), "student-1", validUpload())
	require.NoError(t, err)

	docs, err := documents.ListByProfile(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Empty(t, notifications.notifications)
}

func TestUploadDocumentValidation(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationPending,
	}
	svc, _, _, _, _ := newVerificationFixture(t, student)

	cases := []struct {
		name   string
		mutate func(*UploadDocumentRequest)
	}{
		{"unknown doc type", func(r *UploadDocumentRequest) { r.DocType = "SELFIE" }},
		{"disallowed mime type", func(r *UploadDocumentRequest) { r.MimeType = "image/gif" }},
		{"oversized id photo", func(r *UploadDocumentRequest) { r.SizeBytes = 4 * 1024 * 1024 }},
		{"empty file", func(r *UploadDocumentRequest) { r.SizeBytes = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validUpload()
			tc.mutate(&req)
			_, err := svc.UploadDocument(context.Background(), "student-1", req)
			assert.True(t, apperr.HasKind(err, apperr.KindValidation), "expected validation error, got %v", err)
		})
	}
}

func TestUploadDocumentLargerCapForEnrollmentProof(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationPending,
	}
	svc, _, _, _, _ := newVerificationFixture(t, student)

	req := validUpload()
	req.DocType = model.DocTypeProofOfEnrollment
	req.FileName = "coe.pdf"
	req.MimeType = "application/pdf"
	req.SizeBytes = 4 * 1024 * 1024

	_, err := svc.UploadDocument(context.Background(), "student-1", req)
	assert.NoError(t, err)
}

func TestReviewDocumentInvalidRequiresReason(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationUnderReview,
	}
	svc, _, documents, _, _ := newVerificationFixture(t, student)

	doc := model.VerificationDocument{ProfileID: student.ID, DocType: model.DocTypeStudentID, Status: model.FileStatusPending}
	require.NoError(t, documents.Create(context.Background(), &doc))

	_, err := svc.ReviewDocument(context.Background(), "reviewer-1", doc.ID, ReviewDocumentRequest{
		Status: model.FileStatusInvalid,
	})
	assert.True(t, apperr.HasKind(err, apperr.KindValidation))
}

func TestReviewDocumentRecordsDecisionAndNotifiesOwner(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationUnderReview,
	}
	svc, _, documents, audits, notifications := newVerificationFixture(t, student)

	doc := model.VerificationDocument{ProfileID: student.ID, DocType: model.DocTypeStudentID, Status: model.FileStatusPending}
	require.NoError(t, documents.Create(context.Background(), &doc))

	reviewed, err := svc.ReviewDocument(context.Background(), "reviewer-1", doc.ID, ReviewDocumentRequest{
		Status:          model.FileStatusInvalid,
		RejectionReason: "Photo is blurry",
	})
	require.NoError(t, err)
	assert.Equal(t, model.FileStatusInvalid, reviewed.Status)
	assert.NotNil(t, reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)

	entries := audits.byAction(model.ActionDocumentReview)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Subject, "verification_document:")

	owned := notifications.forRecipient(student.ID)
	require.Len(t, owned, 1)
	assert.Equal(t, model.NotifVerificationRejected, owned[0].Type)
	assert.Equal(t, model.PriorityHigh, owned[0].Priority)
	assert.Contains(t, owned[0].Body, "Photo is blurry")
}

func TestUpdateProfileStatusVerified(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationUnderReview,
	}
	svc, profiles, _, audits, notifications := newVerificationFixture(t, student)

	err := svc.UpdateProfileStatus(context.Background(), "reviewer-1", student.ID, model.VerificationVerified)
	require.NoError(t, err)

	updated, err := profiles.GetByID(context.Background(), student.ID)
	require.NoError(t, err)
	assert.Equal(t, model.VerificationVerified, updated.VerificationStatus)

	entries := audits.byAction(model.ActionVerificationStatusChange)
	require.Len(t, entries, 1)
	assert.Equal(t, "profile:"+student.ID.String(), entries[0].Subject)
	assert.Contains(t, entries[0].Details, `"old_status":"UNDER_REVIEW"`)
	assert.Contains(t, entries[0].Details, `"new_status":"VERIFIED"`)

	owned := notifications.forRecipient(student.ID)
	require.Len(t, owned, 1)
	assert.Equal(t, model.NotifVerificationUpdate, owned[0].Type)
	assert.Equal(t, "Account VERIFIED", owned[0].Title)
}

func TestUpdateProfileStatusRequiresReviewerRole(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationUnderReview,
	}
	svc, _, _, _, _ := newVerificationFixture(t, student)

	err := svc.UpdateProfileStatus(context.Background(), "approver-1", student.ID, model.VerificationVerified)
	assert.True(t, apperr.HasKind(err, apperr.KindForbidden))

	err = svc.UpdateProfileStatus(context.Background(), "student-1", student.ID, model.VerificationVerified)
	assert.True(t, apperr.HasKind(err, apperr.KindForbidden))
}

func TestUpdateProfileStatusRejectsWrongState(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationVerified,
	}
	svc, _, _, _, _ := newVerificationFixture(t, student)

	err := svc.UpdateProfileStatus(context.Background(), "reviewer-1", student.ID, model.VerificationRejected)
	assert.True(t, apperr.HasKind(err, apperr.KindConflict))
}

func TestUpdateProfileStatusUnknownProfile(t *testing.T) {
	student := &model.Profile{
		UserID: "student-1", Email: "student@ischolar.test",
		Role: model.RoleStudent, VerificationStatus: model.VerificationUnderReview,
	}
	svc, _, _, _, _ := newVerificationFixture(t, student)

	err := svc.UpdateProfileStatus(context.Background(), "reviewer-1", uuid.New(), model.VerificationVerified)
	assert.True(t, apperr.HasKind(err, apperr.KindNotFound))
}
