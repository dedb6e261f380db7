package controllers

import (
	"errors"
	"fmt"
	"time"

	"formhive-backend/src/models"
	"formhive-backend/src/utils"

	submissionSvc "formhive-backend/src/services/submission"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubmitForm godoc
// @Summary      Submit a form
// @Description  Validates answers against the form schema and stores the submission
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        body body models.SubmitFormRequest true "Answers keyed by field id"
// @Success      201  {object}  models.FormSubmission
// @Failure      400  {object}  models.ErrorResponse
// @Failure      403  {object}  models.ErrorResponse
// @Failure      422  {object}  models.ErrorResponse
// @Router       /forms/{formId}/submissions [post]
func SubmitForm(c *fiber.Ctx) error {
	form, err := formFromParams(c, "formId")
	if err != nil {
		return err
	}

	var req models.SubmitFormRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Validation failed: "+err.Error())
	}

	sub, err := submissionSvc.SubmitForm(c.Context(), form, &req, optionalUserID(c))
	if err != nil {
		var vErr *submissionSvc.ValidationFailedError
		switch {
		case errors.As(err, &vErr):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":       "Validation failed",
				"fieldErrors": vErr.FieldErrors,
			})
		case err == submissionSvc.ErrFormClosed,
			err == submissionSvc.ErrLoginRequired,
			err == submissionSvc.ErrAnonymousBlocked:
			return utils.HandleError(c, fiber.StatusForbidden, err.Error())
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to submit form: "+err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(sub)
}

// SaveDraft godoc
// @Summary      Save a draft submission
// @Description  Auto-save endpoint. Never validates answers.
// @Tags         submissions
// @Accept       json
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        body body models.SaveDraftRequest true "Answers so far"
// @Success      200  {object}  models.FormSubmission
// @Failure      400  {object}  models.ErrorResponse
// @Router       /forms/{formId}/submissions/draft [post]
func SaveDraft(c *fiber.Ctx) error {
	form, err := formFromParams(c, "formId")
	if err != nil {
		return err
	}

	var req models.SaveDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	sub, err := submissionSvc.SaveDraft(c.Context(), form, &req, optionalUserID(c))
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to save draft: "+err.Error())
	}

	return c.JSON(sub)
}

// GetSubmission godoc
// @Summary      Get a submission with its answers
// @Tags         submissions
// @Produce      json
// @Param        id path string true "Submission ID"
// @Success      200
// @Failure      404  {object}  models.ErrorResponse
// @Router       /submissions/{id} [get]
func GetSubmission(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	sub, err := submissionSvc.GetSubmissionByID(c.Context(), companyID, id)
	if err != nil {
		if err == submissionSvc.ErrSubmissionNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Submission not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch submission: "+err.Error())
	}

	answers, err := submissionSvc.GetSubmissionAnswers(c.Context(), id)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch answers: "+err.Error())
	}

	return c.JSON(fiber.Map{"submission": sub, "answers": answers})
}

// GetSubmissionsByForm godoc
// @Summary      List a form's submissions
// @Tags         submissions
// @Produce      json
// @Param        formId path string true "Form ID"
// @Param        page query int false "Page"
// @Param        limit query int false "Items per page"
// @Success      200  {object}  models.PaginatedResponse
// @Failure      400  {object}  models.ErrorResponse
// @Router       /forms/{formId}/submissions [get]
func GetSubmissionsByForm(c *fiber.Ctx) error {
	companyID, formID, err := companyAndID(c, "formId")
	if err != nil {
		return err
	}

	params := models.DefaultPagination()
	if err := c.QueryParser(&params); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid query: "+err.Error())
	}

	result, err := submissionSvc.GetSubmissionsByFormID(c.Context(), companyID, formID, params)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch submissions: "+err.Error())
	}

	return c.JSON(result)
}

// DeleteSubmission godoc
// @Summary      Delete a submission and its values
// @Tags         submissions
// @Produce      json
// @Param        id path string true "Submission ID"
// @Success      200
// @Failure      404  {object}  models.ErrorResponse
// @Router       /submissions/{id} [delete]
func DeleteSubmission(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	if err := submissionSvc.DeleteSubmission(c.Context(), companyID, id); err != nil {
		if err == submissionSvc.ErrSubmissionNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Submission not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to delete submission: "+err.Error())
	}

	return c.JSON(fiber.Map{"message": "Submission deleted successfully"})
}

// GetFieldAnalytics godoc
// @Summary      Per-field answer counts
// @Description  Aggregates value counts per field across a form's submissions
// @Tags         submissions
// @Produce      json
// @Param        formId path string true "Form ID"
// @Success      200
// @Failure      400  {object}  models.ErrorResponse
// @Router       /forms/{formId}/analytics [get]
func GetFieldAnalytics(c *fiber.Ctx) error {
	// value records carry no tenant id, so ownership is checked on the form
	form, err := companyFormFromParams(c, "formId")
	if err != nil {
		return err
	}

	counts, err := submissionSvc.GetFieldAnalytics(c.Context(), form.ID)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to aggregate analytics: "+err.Error())
	}

	return c.JSON(counts)
}

// ExportSubmissions godoc
// @Summary      Export submissions as CSV
// @Tags         submissions
// @Produce      text/csv
// @Param        formId path string true "Form ID"
// @Success      200
// @Failure      400  {object}  models.ErrorResponse
// @Router       /forms/{formId}/submissions/export [get]
func ExportSubmissions(c *fiber.Ctx) error {
	form, err := companyFormFromParams(c, "formId")
	if err != nil {
		return err
	}

	data, err := submissionSvc.ExportSubmissionsCSV(c.Context(), form)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to export submissions: "+err.Error())
	}

	fileName := fmt.Sprintf("submissions-%s-%s.csv", form.ID.Hex(), time.Now().Format("20060102"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+fileName+`"`)
	return c.Send(data)
}

// optionalUserID converts the authenticated user id when one is present.
// Public forms are served without auth, so a missing id is not an error.
func optionalUserID(c *fiber.Ctx) *primitive.ObjectID {
	raw, _ := c.Locals("userId").(string)
	if raw == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil
	}
	return &id
}
