package models

type CreateDraftRequest struct {
	TurnstileToken string `json:"turnstileToken" form:"turnstileToken"`
}

type ToggleSubjectRequest struct {
	Subject string `json:"subject" validate:"required,subject"`
}

type ConsentRequest struct {
	Consent *bool `json:"consent" validate:"required"`
}

// DataURLFileRequest carries a document already read by the browser, as a
// data URL or bare base64.
type DataURLFileRequest struct {
	Name    string `json:"name" validate:"required,max=255"`
	Type    string `json:"type" validate:"max=255"`
	Content string `json:"content" validate:"required"`
}
