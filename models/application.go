package models

import (
	"errors"
	"slices"
	"strings"
)

// MaxFileSize is the largest document accepted into a slot (5MB).
const MaxFileSize int64 = 5 * 1024 * 1024

// AcceptedFileTypes mirrors the file picker filter shown to applicants.
var AcceptedFileTypes = []string{".pdf", ".doc", ".docx", ".jpg", ".jpeg", ".png"}

var ErrUnknownField = errors.New("unknown application field")

// SubjectCatalog is the fixed list of teaching subjects, in display order.
var SubjectCatalog = []string{
	"English", "Mathematics", "Science (General)", "Physics", "Chemistry", "Biology",
	"History", "Geography", "Art & Design", "Music", "Physical Education",
	"Computer Science", "Business Studies", "Economics", "Primary / Elementary", "Kindergarten / EYFS",
}

func IsCatalogSubject(subject string) bool {
	return slices.Contains(SubjectCatalog, subject)
}

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

var QualificationOptions = []Option{
	{Value: "Bachelors", Label: "Bachelor's Degree"},
	{Value: "Masters", Label: "Master's Degree"},
	{Value: "PhD", Label: "PhD / Doctorate"},
	{Value: "PGCE", Label: "PGCE / Teaching License"},
	{Value: "Diploma", Label: "Diploma"},
	{Value: "Other", Label: "Other"},
}

// ApplicationRecord is the applicant's form state. Values are kept exactly as
// entered; the validate tags are only evaluated at submission time. Beyond
// required, the tags mirror the form's inputs: date pickers, the
// qualification select, a whole-number experience box and the subject list.
type ApplicationRecord struct {
	FirstName       string   `json:"firstName" validate:"required"`
	MiddleName      string   `json:"middleName"`
	LastName        string   `json:"lastName" validate:"required"`
	DateOfBirth     string   `json:"dateOfBirth" validate:"required,datetime=2006-01-02"`
	PassportNumber  string   `json:"passportNumber" validate:"required"`
	PassportExpiry  string   `json:"passportExpiry" validate:"required,datetime=2006-01-02"`
	Qualification   string   `json:"qualification" validate:"required,qualification"`
	Certifications  string   `json:"certifications"`
	Experience      string   `json:"experience" validate:"required,nonnegint"`
	Subjects        []string `json:"subjects" validate:"required,min=1,dive,subject"`
	AdditionalNotes string   `json:"additionalNotes"`
	Consent         bool     `json:"consent" validate:"required"`
}

// SetField overwrites one scalar field addressed by its JSON name.
func (r *ApplicationRecord) SetField(name, value string) error {
	switch name {
	case "firstName":
		r.FirstName = value
	case "middleName":
		r.MiddleName = value
	case "lastName":
		r.LastName = value
	case "dateOfBirth":
		r.DateOfBirth = value
	case "passportNumber":
		r.PassportNumber = value
	case "passportExpiry":
		r.PassportExpiry = value
	case "qualification":
		r.Qualification = value
	case "certifications":
		r.Certifications = value
	case "experience":
		r.Experience = value
	case "additionalNotes":
		r.AdditionalNotes = value
	default:
		return ErrUnknownField
	}
	return nil
}

// ToggleSubject removes subject when selected and appends it otherwise.
func (r *ApplicationRecord) ToggleSubject(subject string) {
	if i := slices.Index(r.Subjects, subject); i >= 0 {
		r.Subjects = slices.Delete(slices.Clone(r.Subjects), i, i+1)
		return
	}
	r.Subjects = append(slices.Clone(r.Subjects), subject)
}

func (r ApplicationRecord) Clone() ApplicationRecord {
	r.Subjects = slices.Clone(r.Subjects)
	return r
}

type AttachedFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	Base64 string `json:"base64"`
}

type Slot string

const (
	SlotCV           Slot = "cv"
	SlotPassportCopy Slot = "passportCopy"
	SlotMedical      Slot = "medical"
	SlotAdditional   Slot = "additional"
)

var Slots = []Slot{SlotCV, SlotPassportCopy, SlotMedical, SlotAdditional}

func (s Slot) Valid() bool {
	return slices.Contains(Slots, s)
}

func (s Slot) Required() bool {
	return s == SlotCV || s == SlotPassportCopy
}

// ApplicationFiles holds the four document slots; nil means empty.
type ApplicationFiles struct {
	CV           *AttachedFile `json:"cv"`
	PassportCopy *AttachedFile `json:"passportCopy"`
	Medical      *AttachedFile `json:"medical"`
	Additional   *AttachedFile `json:"additional"`
}

func (f *ApplicationFiles) ref(slot Slot) **AttachedFile {
	switch slot {
	case SlotCV:
		return &f.CV
	case SlotPassportCopy:
		return &f.PassportCopy
	case SlotMedical:
		return &f.Medical
	case SlotAdditional:
		return &f.Additional
	}
	return nil
}

func (f *ApplicationFiles) Get(slot Slot) *AttachedFile {
	if p := f.ref(slot); p != nil {
		return *p
	}
	return nil
}

// Set stores file into slot; a nil file empties it. Unknown slots are ignored.
func (f *ApplicationFiles) Set(slot Slot, file *AttachedFile) {
	if p := f.ref(slot); p != nil {
		*p = file
	}
}

// SubmissionPayload is the JSON body sent to the intake endpoint.
type SubmissionPayload struct {
	FirstName       string           `json:"firstName"`
	MiddleName      string           `json:"middleName"`
	LastName        string           `json:"lastName"`
	DateOfBirth     string           `json:"dateOfBirth"`
	PassportNumber  string           `json:"passportNumber"`
	PassportExpiry  string           `json:"passportExpiry"`
	Qualification   string           `json:"qualification"`
	Certifications  string           `json:"certifications"`
	Experience      string           `json:"experience"`
	Subjects        string           `json:"subjects"`
	AdditionalNotes string           `json:"additionalNotes"`
	Consent         bool             `json:"consent"`
	Files           ApplicationFiles `json:"files"`
}

func NewSubmissionPayload(record ApplicationRecord, files ApplicationFiles) SubmissionPayload {
	return SubmissionPayload{
		FirstName:       record.FirstName,
		MiddleName:      record.MiddleName,
		LastName:        record.LastName,
		DateOfBirth:     record.DateOfBirth,
		PassportNumber:  record.PassportNumber,
		PassportExpiry:  record.PassportExpiry,
		Qualification:   record.Qualification,
		Certifications:  record.Certifications,
		Experience:      record.Experience,
		Subjects:        strings.Join(record.Subjects, ", "),
		AdditionalNotes: record.AdditionalNotes,
		Consent:         record.Consent,
		Files:           files,
	}
}

type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSucceeded  SubmissionStatus = "succeeded"
	StatusFailed     SubmissionStatus = "failed"
)

type SubmissionState struct {
	Status  SubmissionStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}
