package submission

import (
	"testing"
	"time"

	"formhive-backend/src/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func openForm() *models.Form {
	return &models.Form{
		ID:       primitive.NewObjectID(),
		Status:   models.FormPublished,
		Settings: models.FormSettings{AllowAnonymous: true},
	}
}

func TestCheckAccess(t *testing.T) {
	userID := primitive.NewObjectID()

	t.Run("PublishedFormAcceptsSubmission", func(t *testing.T) {
		err := checkAccess(openForm(), &models.SubmitFormRequest{}, &userID)
		assert.NoError(t, err)
	})

	t.Run("DraftFormIsClosed", func(t *testing.T) {
		form := openForm()
		form.Status = models.FormDraft
		err := checkAccess(form, &models.SubmitFormRequest{}, &userID)
		assert.Equal(t, ErrFormClosed, err)
	})

	t.Run("ExpiredFormIsClosed", func(t *testing.T) {
		form := openForm()
		past := time.Now().Add(-time.Hour)
		form.AccessControl.ExpiresAt = &past
		err := checkAccess(form, &models.SubmitFormRequest{}, &userID)
		assert.Equal(t, ErrFormClosed, err)
	})

	t.Run("MaxSubmissionsReachedIsClosed", func(t *testing.T) {
		form := openForm()
		form.AccessControl.MaxSubmissions = 10
		form.Metadata.SubmissionCount = 10
		err := checkAccess(form, &models.SubmitFormRequest{}, &userID)
		assert.Equal(t, ErrFormClosed, err)
	})

	t.Run("LoginRequiredBlocksMissingUser", func(t *testing.T) {
		form := openForm()
		form.Settings.RequireLogin = true
		err := checkAccess(form, &models.SubmitFormRequest{}, nil)
		assert.Equal(t, ErrLoginRequired, err)
	})

	t.Run("LoginRequiredBlocksAnonymousSubmission", func(t *testing.T) {
		// a logged-in user submitting anonymously still violates the policy
		form := openForm()
		form.Settings.RequireLogin = true
		err := checkAccess(form, &models.SubmitFormRequest{IsAnonymous: true}, &userID)
		assert.Equal(t, ErrLoginRequired, err)
	})

	t.Run("LoginRequiredAllowsNamedUser", func(t *testing.T) {
		form := openForm()
		form.Settings.RequireLogin = true
		err := checkAccess(form, &models.SubmitFormRequest{}, &userID)
		assert.NoError(t, err)
	})

	t.Run("AnonymousBlockedWhenNotAllowed", func(t *testing.T) {
		form := openForm()
		form.Settings.AllowAnonymous = false
		err := checkAccess(form, &models.SubmitFormRequest{IsAnonymous: true}, &userID)
		assert.Equal(t, ErrAnonymousBlocked, err)
	})
}
