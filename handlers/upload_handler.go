package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/hdreventsza-arch/hrd-events/models"
	"github.com/hdreventsza-arch/hrd-events/services"
	"github.com/hdreventsza-arch/hrd-events/utils"

	"github.com/labstack/echo/v4"
)

// HandleAttachFile stores one document in a slot. The document arrives either
// as the first file part of a multipart body or as a JSON data URL.
func (h *ApplicationHandler) HandleAttachFile(c echo.Context) error {
	form, err := h.draft(c)
	if form == nil {
		return err
	}

	slot := models.Slot(c.Param("slot"))
	if !slot.Valid() {
		return utils.ErrorResponse(c, http.StatusBadRequest, "Unknown document slot", slot)
	}

	var file services.RawFile
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err = readMultipartFile(c)
	} else {
		file, err = readDataURLFile(c)
	}
	if err != nil {
		if errors.Is(err, services.ErrFileTooLarge) {
			return utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "File size exceeds 5MB limit.", nil)
		}
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return utils.ErrorResponse(c, http.StatusBadRequest, "Validation failed", he.Message)
		}
		return utils.ErrorResponse(c, http.StatusBadRequest, "Invalid file upload", err.Error())
	}

	res := <-form.AttachFile(slot, file)
	switch {
	case res.Err == nil:
		h.logger.Info("file attached", "draft_id", form.ID(), "slot", slot, "file", res.File.Name, "bytes", res.File.Size)
		return utils.SuccessResponse(c, "File uploaded successfully", map[string]interface{}{
			"slot":  slot,
			"file":  newFileView(res.File),
			"draft": newDraftView(form),
		})
	case errors.Is(res.Err, services.ErrFileTooLarge):
		return utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "File size exceeds 5MB limit.", nil)
	case errors.Is(res.Err, services.ErrFileRead):
		return utils.ErrorResponse(c, http.StatusUnprocessableEntity, "Error processing file. Please try again.", nil)
	case errors.Is(res.Err, services.ErrAttachmentSuperseded):
		return utils.ErrorResponse(c, http.StatusConflict, "A newer file was selected for this document", nil)
	}
	return h.formError(c, res.Err)
}

// readMultipartFile buffers the first file part, reading at most one byte
// past the size limit so oversized uploads are rejected without holding them.
func readMultipartFile(c echo.Context) (services.RawFile, error) {
	reader, err := c.Request().MultipartReader()
	if err != nil {
		return nil, err
	}

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			return nil, errors.New("no file parts found")
		}
		if err != nil {
			return nil, err
		}
		if part.FileName() == "" {
			_ = part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, models.MaxFileSize+1))
		_ = part.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > models.MaxFileSize {
			return nil, services.ErrFileTooLarge
		}
		return services.NewMemoryFile(part.FileName(), part.Header.Get(echo.HeaderContentType), data), nil
	}
}

func readDataURLFile(c echo.Context) (services.RawFile, error) {
	var req models.DataURLFileRequest
	if err := c.Bind(&req); err != nil {
		return nil, err
	}
	if err := c.Validate(&req); err != nil {
		return nil, err
	}
	return services.NewDataURLFile(req.Name, req.Type, req.Content)
}
