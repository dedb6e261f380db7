package controllers

import (
	"fmt"
	"io"

	"formhive-backend/src/models"
	"formhive-backend/src/services/imports"
	"formhive-backend/src/utils"

	"github.com/gofiber/fiber/v2"
)

// AnalyzeImportFile godoc
// @Summary      Upload and analyze a spreadsheet
// @Description  Parses the file and proposes a field schema per column
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV or Excel file"
// @Success      200  {object}  models.AnalyzeResult
// @Failure      400  {object}  models.ErrorResponse
// @Failure      413  {object}  models.ErrorResponse
// @Router       /imports/analyze [post]
func AnalyzeImportFile(c *fiber.Ctx) error {
	companyID, err := companyIDFromCtx(c)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid company id")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Failed to upload file: "+err.Error())
	}
	if fileHeader.Size > imports.MaxFileSize {
		return utils.HandleError(c, fiber.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds the %d MB limit", imports.MaxFileSize/(1024*1024)))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Failed to read file: "+err.Error())
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Failed to read file: "+err.Error())
	}

	contentType := fileHeader.Header.Get("Content-Type")
	result, err := imports.AnalyzeUpload(c.Context(), companyID, fileHeader.Filename, contentType, data)
	if err != nil {
		if _, ok := err.(*imports.ParseError); ok {
			return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to analyze file: "+err.Error())
	}

	return c.JSON(result)
}

// StartImport godoc
// @Summary      Start an import job
// @Description  Queues a background job that turns an analyzed file into submissions
// @Tags         imports
// @Accept       json
// @Produce      json
// @Param        body body models.StartImportRequest true "File, target form and mapping"
// @Success      202  {object}  models.ImportJob
// @Failure      400  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /imports [post]
func StartImport(c *fiber.Ctx) error {
	companyID, err := companyIDFromCtx(c)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid company id")
	}

	var req models.StartImportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid input: "+err.Error())
	}
	if err := validate.Struct(&req); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Validation failed: "+err.Error())
	}

	job, err := imports.StartImport(c.Context(), companyID, userIDFromCtx(c), &req)
	if err != nil {
		switch err {
		case imports.ErrFileNotFound:
			return utils.HandleError(c, fiber.StatusNotFound, "Uploaded file not found")
		case imports.ErrJobAlreadyRunning:
			return utils.HandleError(c, fiber.StatusConflict, err.Error())
		}
		if _, ok := err.(*imports.ParseError); ok {
			return utils.HandleError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to start import: "+err.Error())
	}

	return c.Status(fiber.StatusAccepted).JSON(job)
}

// GetImportProgress godoc
// @Summary      Poll an import job's progress
// @Tags         imports
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200  {object}  models.ImportProgress
// @Failure      404  {object}  models.ErrorResponse
// @Router       /imports/{id}/progress [get]
func GetImportProgress(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	progress, err := imports.GetImportProgress(c.Context(), companyID, id)
	if err != nil {
		if err == imports.ErrJobNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Import job not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch progress: "+err.Error())
	}

	return c.JSON(progress)
}

// GetImportJob godoc
// @Summary      Get an import job with its row errors
// @Tags         imports
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200  {object}  models.ImportJob
// @Failure      404  {object}  models.ErrorResponse
// @Router       /imports/{id} [get]
func GetImportJob(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	job, err := imports.GetImportJob(c.Context(), companyID, id)
	if err != nil {
		if err == imports.ErrJobNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Import job not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch job: "+err.Error())
	}

	return c.JSON(job)
}

// ListImportJobs godoc
// @Summary      List the company's import jobs
// @Tags         imports
// @Produce      json
// @Param        page query int false "Page"
// @Param        limit query int false "Items per page"
// @Success      200  {object}  models.PaginatedResponse
// @Failure      500  {object}  models.ErrorResponse
// @Router       /imports [get]
func ListImportJobs(c *fiber.Ctx) error {
	companyID, err := companyIDFromCtx(c)
	if err != nil {
		return utils.HandleError(c, fiber.StatusUnauthorized, "Missing or invalid company id")
	}

	params := models.DefaultPagination()
	if err := c.QueryParser(&params); err != nil {
		return utils.HandleError(c, fiber.StatusBadRequest, "Invalid query: "+err.Error())
	}

	result, err := imports.ListImportJobs(c.Context(), companyID, params)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch jobs: "+err.Error())
	}

	return c.JSON(result)
}

// CancelImport godoc
// @Summary      Cancel a running import job
// @Description  Cooperative cancel. Rows already imported are kept.
// @Tags         imports
// @Produce      json
// @Param        id path string true "Job ID"
// @Success      200
// @Failure      404  {object}  models.ErrorResponse
// @Failure      409  {object}  models.ErrorResponse
// @Router       /imports/{id}/cancel [post]
func CancelImport(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	if err := imports.CancelImport(c.Context(), companyID, id); err != nil {
		switch err {
		case imports.ErrJobNotFound:
			return utils.HandleError(c, fiber.StatusNotFound, "Import job not found")
		case imports.ErrJobFinished:
			return utils.HandleError(c, fiber.StatusConflict, "Import job already finished")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to cancel job: "+err.Error())
	}

	return c.JSON(fiber.Map{"message": "Cancellation requested"})
}

// DownloadImportErrors godoc
// @Summary      Download a job's error report as CSV
// @Tags         imports
// @Produce      text/csv
// @Param        id path string true "Job ID"
// @Success      200
// @Failure      404  {object}  models.ErrorResponse
// @Router       /imports/{id}/errors [get]
func DownloadImportErrors(c *fiber.Ctx) error {
	companyID, id, err := companyAndID(c, "id")
	if err != nil {
		return err
	}

	job, err := imports.GetImportJob(c.Context(), companyID, id)
	if err != nil {
		if err == imports.ErrJobNotFound {
			return utils.HandleError(c, fiber.StatusNotFound, "Import job not found")
		}
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to fetch job: "+err.Error())
	}

	data, err := imports.ErrorReportCSV(job)
	if err != nil {
		return utils.HandleError(c, fiber.StatusInternalServerError, "Failed to build report: "+err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="import-errors-`+id.Hex()+`.csv"`)
	return c.Send(data)
}
