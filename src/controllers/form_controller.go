package controllers

import (
	"errors"

	"formhive-backend/src/models"
	"formhive-backend/src/services/forms"
	"formhive-backend/src/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate = validator.New()

// companyIDFromCtx reads the tenant id placed on the context by AuthJWT.
func companyIDFromCtx(c *fiber.Ctx) (primitive.ObjectID, error) {
	raw, _ := c.Locals("companyId").(string)
	return primitive.ObjectIDFromHex(raw)
}

func userIDFromCtx(c *fiber.Ctx) string {
	raw, _ := c.Locals("userId").(string)
	return raw
}

// CreateForm godoc
// @Summary      Create a new form
// @Description  Create a draft form with its field schema
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        body body models.CreateFormRequest true "Form definition"
// @Success      201  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms [post]
func CreateForm(c *fiber.Ctx) error {
	companyID, err := companyIDFromCtx(c)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid company id")
	}

	var req models.CreateFormRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Validation failed: "+err.Error())
	}

	form, err := forms.CreateForm(c.Context(), companyID, userIDFromCtx(c), &req)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to create form: "+err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(form)
}

// GetForms godoc
// @Summary      List forms
// @Description  List the company's forms with pagination and search
// @Tags         forms
// @Produce      json
// @Param        page query int false "Page"
// @Param        limit query int false "Items per page"
// @Param        search query string false "Title search"
// @Success      200  {object}  models.PaginatedResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /forms [get]
func GetForms(c *fiber.Ctx) error {
	companyID, err := companyIDFromCtx(c)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid company id")
	}

	params := models.DefaultPagination()
	if err := c.QueryParser(&params); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid query: "+err.Error())
	}

	result, err := forms.GetForms(c.Context(), companyID, params)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch forms: "+err.Error())
	}

	return c.JSON(result)
}

// GetFormByID godoc
// @Summary      Get a form
// @Tags         forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200  {object}  models.Form
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forms/{id} [get]
func GetFormByID(c *fiber.Ctx) error {
	form, err := companyFormFromParams(c, "id")
	if err != nil {
		return err
	}
	return c.JSON(form)
}

// UpdateForm godoc
// @Summary      Update a form
// @Description  Update a form's schema and settings. Schema edits bump the form version.
// @Tags         forms
// @Accept       json
// @Produce      json
// @Param        id path string true "Form ID"
// @Param        body body models.UpdateFormRequest true "Changes"
// @Success      200  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forms/{id} [put]
func UpdateForm(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	var req models.UpdateFormRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}

	form, err := forms.UpdateForm(c.Context(), companyID, id, &req)
	if err != nil {
		if err == forms.ErrFormNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Form not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to update form: "+err.Error())
	}

	return c.JSON(form)
}

// DeleteForm godoc
// @Summary      Delete a form
// @Tags         forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forms/{id} [delete]
func DeleteForm(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	if err := forms.DeleteForm(c.Context(), companyID, id); err != nil {
		if err == forms.ErrFormNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Form not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to delete form: "+err.Error())
	}

	return c.JSON(fiber.Map{"message": "Form deleted successfully"})
}

// PublishForm godoc
// @Summary      Publish a form
// @Description  Validates the schema and makes the form accept submissions
// @Tags         forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200  {object}  models.Form
// @Failure      400  {object}  models.ErrorResponse
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forms/{id}/publish [post]
func PublishForm(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	form, err := forms.PublishForm(c.Context(), companyID, id)
	if err != nil {
		if err == forms.ErrFormNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Form not found")
		}
		var schemaErr *forms.SchemaValidationError
		if errors.As(err, &schemaErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Form schema is invalid",
				"issues": schemaErr.Errors,
			})
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to publish form: "+err.Error())
	}

	return c.JSON(form)
}

// ArchiveForm godoc
// @Summary      Archive a form
// @Tags         forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      200  {object}  models.Form
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forms/{id}/archive [post]
func ArchiveForm(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	form, err := forms.ArchiveForm(c.Context(), companyID, id)
	if err != nil {
		if err == forms.ErrFormNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Form not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to archive form: "+err.Error())
	}

	return c.JSON(form)
}

// DuplicateForm godoc
// @Summary      Duplicate a form
// @Description  Copies a form as a new draft with fresh field and step ids
// @Tags         forms
// @Produce      json
// @Param        id path string true "Form ID"
// @Success      201  {object}  models.Form
// @Failure      404  {object}  models.ErrorResponse
// @Router       /forms/{id}/duplicate [post]
func DuplicateForm(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	form, err := forms.DuplicateForm(c.Context(), companyID, id, userIDFromCtx(c))
	if err != nil {
		if err == forms.ErrFormNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Form not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to duplicate form: "+err.Error())
	}

	return c.Status(fiber.StatusCreated).JSON(form)
}

// companyAndID reads the tenant id and a path object id, writing the error
// response itself when either is missing.
func companyAndID(c *fiber.Ctx, param string) (primitive.ObjectID, primitive.ObjectID, error) {
	companyID, err := companyIDFromCtx(c)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID,
			utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid company id")
	}
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID,
			utils.HandleError(c, fiber.StatusBadRequest, "Invalid id")
	}
	return companyID, id, nil
}

// formFromParams loads a form by path id without tenant scoping. Only the
// public respondent endpoints use it.
func formFromParams(c *fiber.Ctx, param string) (*models.Form, error) {
	id, err := primitive.ObjectIDFromHex(c.Params(param))
	if err != nil {
		return nil, utils.HandleError(c, fiber.StatusBadRequest, "Invalid form id")
	}
	form, err := forms.GetFormByID(c.Context(), id)
	return respondOnFormError(c, form, err)
}

// companyFormFromParams loads a form by path id, scoped to the caller's
// company. Builder endpoints use this.
func companyFormFromParams(c *fiber.Ctx, param string) (*models.Form, error) {
	companyID, id, err := companyAndID(c, param)
	if err != nil {
		return nil, err
	}
	form, err := forms.GetCompanyForm(c.Context(), companyID, id)
	return respondOnFormError(c, form, err)
}

func respondOnFormError(c *fiber.Ctx, form *models.Form, err error) (*models.Form, error) {
	if err != nil {
		if err == forms.ErrFormNotFound {
			return nil, utils.HandleError(c, fiber.StatusNotFound, "Form not found")
		}
		return nil, utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch form: "+err.Error())
	}
	return form, nil
}
