package handlers

import (
	"github.com/hdreventsza-arch/hrd-events/models"
	"github.com/hdreventsza-arch/hrd-events/utils"

	"github.com/labstack/echo/v4"
)

type slotConfig struct {
	Slot       models.Slot `json:"slot"`
	Label      string      `json:"label"`
	Required   bool        `json:"required"`
	AcceptText string      `json:"acceptText"`
}

var slotConfigs = []slotConfig{
	{Slot: models.SlotCV, Label: "CV / Resume", Required: true, AcceptText: "PDF, DOC, JPG (Max 5MB)"},
	{Slot: models.SlotPassportCopy, Label: "Passport Copy", Required: true, AcceptText: "PDF, JPG, PNG (Max 5MB)"},
	{Slot: models.SlotMedical, Label: "Medical Certificate", AcceptText: "PDF, JPG, PNG (Optional)"},
	{Slot: models.SlotAdditional, Label: "Additional Documents", AcceptText: "Certificates, Reference Letters (Optional)"},
}

func HandleConfig(c echo.Context) error {
	configData := map[string]interface{}{
		"subjects":          models.SubjectCatalog,
		"qualifications":    models.QualificationOptions,
		"slots":             slotConfigs,
		"maxFileSize":       models.MaxFileSize,
		"acceptedFileTypes": models.AcceptedFileTypes,
	}
	return utils.SuccessResponse(c, "Configuration retrieved successfully", configData)
}
