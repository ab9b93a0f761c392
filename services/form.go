package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hdreventsza-arch/hrd-events/config"
	"github.com/hdreventsza-arch/hrd-events/models"
	"github.com/hdreventsza-arch/hrd-events/utils"
)

// Messages shown to the applicant when a submission ends in the failed state.
const (
	MsgRequiredFields   = "Please fill in all required fields."
	MsgMissingDocuments = "Please upload both your CV and Passport Copy."
	MsgSubmissionFailed = "There was an issue submitting your application. Please try again."
)

var MsgMissingEndpoint = fmt.Sprintf("Configuration Error: Submission endpoint is missing (%s).", config.EndpointEnvKey)

var (
	ErrUnknownSlot          = errors.New("unknown document slot")
	ErrFileTooLarge         = errors.New("file size exceeds 5MB limit")
	ErrFileRead             = errors.New("error processing file")
	ErrAttachmentSuperseded = errors.New("a newer file was selected for this slot")
	ErrFormClosed           = errors.New("application form is closed")
	ErrSubmissionInFlight   = errors.New("submission already in progress")
	ErrAlreadySubmitted     = errors.New("application already submitted")
)

// StructValidator is satisfied by utils.CustomValidator.
type StructValidator interface {
	Validate(i interface{}) error
}

type SubmittedEvent struct {
	DraftID       string    `json:"draftId"`
	Qualification string    `json:"qualification"`
	Experience    string    `json:"experience"`
	Subjects      []string  `json:"subjects"`
	Documents     []string  `json:"documents"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Notifier is told about accepted applications. Failures are logged only.
type Notifier interface {
	NotifySubmitted(ctx context.Context, event SubmittedEvent) error
}

type FormOptions struct {
	ID string
	// Endpoint is the intake URL; empty means not configured.
	Endpoint    string
	Submitter   Submitter
	Validator   StructValidator
	Notifier    Notifier
	Logger      *slog.Logger
	MaxFileSize int64
}

type AttachResult struct {
	Slot models.Slot
	File *models.AttachedFile
	Err  error
}

type FormSnapshot struct {
	Record models.ApplicationRecord
	Files  models.ApplicationFiles
	State  models.SubmissionState
}

// Form is one applicant's in-memory application. All methods are safe for
// concurrent use; file reads and the submission request run without holding
// the lock and apply their results afterwards.
type Form struct {
	opts FormOptions

	mu     sync.Mutex
	record models.ApplicationRecord
	files  models.ApplicationFiles
	state  models.SubmissionState
	// generation of the latest attachment initiated per slot
	gen    map[models.Slot]uint64
	closed bool
}

func NewForm(opts FormOptions) *Form {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = models.MaxFileSize
	}
	if opts.Validator == nil {
		opts.Validator = utils.NewValidator()
	}
	if opts.Submitter == nil {
		opts.Submitter = NewIntakeClient(nil)
	}
	if opts.ID != "" {
		opts.Logger = opts.Logger.With("draft_id", opts.ID)
	}
	return &Form{
		opts:  opts,
		state: models.SubmissionState{Status: models.StatusIdle},
		gen:   make(map[models.Slot]uint64),
	}
}

func (f *Form) ID() string { return f.opts.ID }

func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	return f.record.SetField(name, value)
}

func (f *Form) ToggleSubject(subject string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.record.ToggleSubject(subject)
}

func (f *Form) SetConsent(flag bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.record.Consent = flag
}

// AttachFile reads and encodes file in the background and stores it in slot.
// The returned channel receives exactly one result and is never closed early.
// Oversized files are rejected before any read. When several attachments for
// the same slot overlap, only the most recently initiated one is stored.
func (f *Form) AttachFile(slot models.Slot, file RawFile) <-chan AttachResult {
	done := make(chan AttachResult, 1)
	reject := func(err error) <-chan AttachResult {
		done <- AttachResult{Slot: slot, Err: err}
		return done
	}

	if !slot.Valid() {
		return reject(ErrUnknownSlot)
	}
	if file.Size() > f.opts.MaxFileSize {
		f.opts.Logger.Warn("file rejected", "slot", slot, "file", file.Name(), "size", file.Size())
		return reject(ErrFileTooLarge)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return reject(ErrFormClosed)
	}
	f.gen[slot]++
	gen := f.gen[slot]
	f.mu.Unlock()

	go func() {
		encoded, mimeType, err := readAndEncode(file)

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case f.closed:
			done <- AttachResult{Slot: slot, Err: ErrFormClosed}
		case f.gen[slot] != gen:
			done <- AttachResult{Slot: slot, Err: ErrAttachmentSuperseded}
		case err != nil:
			f.opts.Logger.Error("file read failed", "slot", slot, "file", file.Name(), "error", err)
			done <- AttachResult{Slot: slot, Err: fmt.Errorf("%w: %w", ErrFileRead, err)}
		default:
			attached := &models.AttachedFile{
				Name:   file.Name(),
				Type:   mimeType,
				Size:   file.Size(),
				Base64: encoded,
			}
			f.files.Set(slot, attached)
			done <- AttachResult{Slot: slot, File: attached}
		}
	}()
	return done
}

// RemoveFile empties slot. A read still pending for the slot is not a newer
// selection and fills the slot again when it completes.
func (f *Form) RemoveFile(slot models.Slot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.files.Set(slot, nil)
}

// Submit validates the application and sends it to the intake endpoint once.
// Validation, configuration and delivery problems end in the failed state and
// are reported through the returned state; the error is only set when the
// form could not start a submission at all.
func (f *Form) Submit(ctx context.Context) (models.SubmissionState, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return models.SubmissionState{}, ErrFormClosed
	}
	switch f.state.Status {
	case models.StatusSubmitting:
		f.mu.Unlock()
		return f.State(), ErrSubmissionInFlight
	case models.StatusSucceeded:
		f.mu.Unlock()
		return f.State(), ErrAlreadySubmitted
	}
	f.state = models.SubmissionState{Status: models.StatusSubmitting}
	record := f.record.Clone()
	files := f.files
	f.mu.Unlock()

	if err := f.opts.Validator.Validate(record); err != nil {
		f.opts.Logger.Info("application incomplete", "fields", utils.ValidationErrors(err))
		return f.fail(MsgRequiredFields), nil
	}
	if files.CV == nil || files.PassportCopy == nil {
		return f.fail(MsgMissingDocuments), nil
	}

	payload := models.NewSubmissionPayload(record, files)

	if f.opts.Endpoint == "" {
		f.opts.Logger.Error("submission endpoint is not configured", "env", config.EndpointEnvKey)
		return f.fail(MsgMissingEndpoint), nil
	}

	resp, err := f.opts.Submitter.Submit(ctx, f.opts.Endpoint, payload)
	if err != nil {
		f.opts.Logger.Error("submission failed", "error", err, "http_status", resp.HTTPStatus)
		return f.fail(MsgSubmissionFailed), nil
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return models.SubmissionState{Status: models.StatusSucceeded}, nil
	}
	f.state = models.SubmissionState{Status: models.StatusSucceeded}
	f.record = models.ApplicationRecord{}
	f.files = models.ApplicationFiles{}
	state := f.state
	f.mu.Unlock()

	f.opts.Logger.Info("application submitted", "http_status", resp.HTTPStatus, "result", resp.Result, "status", resp.Status)
	f.notify(ctx, record, files)
	return state, nil
}

func (f *Form) fail(message string) models.SubmissionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.state = models.SubmissionState{Status: models.StatusFailed, Message: message}
	}
	return models.SubmissionState{Status: models.StatusFailed, Message: message}
}

func (f *Form) notify(ctx context.Context, record models.ApplicationRecord, files models.ApplicationFiles) {
	if f.opts.Notifier == nil {
		return
	}
	var documents []string
	for _, slot := range models.Slots {
		if files.Get(slot) != nil {
			documents = append(documents, string(slot))
		}
	}
	event := SubmittedEvent{
		DraftID:       f.opts.ID,
		Qualification: record.Qualification,
		Experience:    record.Experience,
		Subjects:      record.Subjects,
		Documents:     documents,
		SubmittedAt:   time.Now().UTC(),
	}
	if err := f.opts.Notifier.NotifySubmitted(ctx, event); err != nil {
		f.opts.Logger.Warn("submission notification failed", "error", err)
	}
}

// Reset returns a finished form to idle. Record and files are left as they
// are: a successful submission already cleared them and a failed one keeps
// them for correction.
func (f *Form) Reset() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFormClosed
	}
	if f.state.Status == models.StatusSubmitting {
		return ErrSubmissionInFlight
	}
	f.state = models.SubmissionState{Status: models.StatusIdle}
	return nil
}

func (f *Form) State() models.SubmissionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormSnapshot{
		Record: f.record.Clone(),
		Files:  f.files,
		State:  f.state,
	}
}

// Close discards the form. Pending reads and submissions finish but their
// results are dropped.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}
