package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Catalog step names with a dedicated payload schema.
const (
	StepNamePersonalInfo   = "personal_info"
	StepNameDocumentUpload = "document_upload"
	StepNameVerification   = "verification"
	StepNameFinalSetup     = "final_setup"
)

const maxTextField = 255

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-]{5,20}$`)

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StepData is the typed payload saved against an onboarding step.
type StepData interface {
	StepName() string
	Validate() []FieldError
}

// PersonalInfoData is the payload of the personal information step.
type PersonalInfoData struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Company     string `json:"company,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
}

func (PersonalInfoData) StepName() string { return StepNamePersonalInfo }

func (d PersonalInfoData) Validate() []FieldError {
	var errs []FieldError
	for field, value := range map[string]string{
		"firstName": d.FirstName,
		"lastName":  d.LastName,
		"company":   d.Company,
		"address":   d.Address,
	} {
		if len(value) > maxTextField {
			errs = append(errs, FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", maxTextField)})
		}
	}
	if d.Phone != "" && !phonePattern.MatchString(d.Phone) {
		errs = append(errs, FieldError{Field: "phone", Message: "must be a valid phone number"})
	}
	if d.DateOfBirth != "" {
		if _, err := time.Parse(time.DateOnly, d.DateOfBirth); err != nil {
			errs = append(errs, FieldError{Field: "dateOfBirth", Message: "must be a date in YYYY-MM-DD format"})
		}
	}
	sortFieldErrors(errs)
	return errs
}

// ProfileUpdate returns the client fields this step carries. Empty values are skipped.
func (d PersonalInfoData) ProfileUpdate() ProfileUpdate {
	var u ProfileUpdate
	if v := strings.TrimSpace(d.FirstName); v != "" {
		u.FirstName = &v
	}
	if v := strings.TrimSpace(d.LastName); v != "" {
		u.LastName = &v
	}
	if v := strings.TrimSpace(d.Company); v != "" {
		u.Company = &v
	}
	if v := strings.TrimSpace(d.Phone); v != "" {
		u.Phone = &v
	}
	return u
}

// DocumentUploadData references the documents registered during the upload step.
type DocumentUploadData struct {
	DocumentIDs []string `json:"documentIds,omitempty"`
}

func (DocumentUploadData) StepName() string { return StepNameDocumentUpload }

func (d DocumentUploadData) Validate() []FieldError {
	for _, id := range d.DocumentIDs {
		if strings.TrimSpace(id) == "" {
			return []FieldError{{Field: "documentIds", Message: "must not contain empty ids"}}
		}
	}
	return nil
}

// VerificationData is the payload of the verification step.
type VerificationData struct {
	Confirmed bool   `json:"confirmed"`
	Notes     string `json:"notes,omitempty"`
}

func (VerificationData) StepName() string { return StepNameVerification }

func (d VerificationData) Validate() []FieldError {
	if len(d.Notes) > 2000 {
		return []FieldError{{Field: "notes", Message: "must be at most 2000 characters"}}
	}
	return nil
}

// FinalSetupData is the payload of the final setup step.
type FinalSetupData struct {
	AcceptedTerms      bool           `json:"acceptedTerms"`
	NotificationsOptIn bool           `json:"notificationsOptIn"`
	Preferences        map[string]any `json:"preferences,omitempty"`
}

func (FinalSetupData) StepName() string { return StepNameFinalSetup }

func (FinalSetupData) Validate() []FieldError { return nil }

// GenericStepData holds the payload of steps without a dedicated schema.
type GenericStepData struct {
	Name   string
	Fields map[string]any
}

func (d GenericStepData) StepName() string { return d.Name }

func (GenericStepData) Validate() []FieldError { return nil }

// MarshalJSON encodes only the free-form fields.
func (d GenericStepData) MarshalJSON() ([]byte, error) {
	if d.Fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.Fields)
}

// DecodeStepData parses raw into the payload type registered for stepName and validates it.
// An empty or null payload decodes to the zero value.
func DecodeStepData(stepName string, raw json.RawMessage) (StepData, error) {
	trimmed := bytes.TrimSpace(raw)
	empty := len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))

	var data StepData
	switch stepName {
	case StepNamePersonalInfo:
		var d PersonalInfoData
		if !empty {
			if err := decodeStrict(trimmed, &d); err != nil {
				return nil, err
			}
		}
		data = d
	case StepNameDocumentUpload:
		var d DocumentUploadData
		if !empty {
			if err := decodeStrict(trimmed, &d); err != nil {
				return nil, err
			}
		}
		data = d
	case StepNameVerification:
		var d VerificationData
		if !empty {
			if err := decodeStrict(trimmed, &d); err != nil {
				return nil, err
			}
		}
		data = d
	case StepNameFinalSetup:
		var d FinalSetupData
		if !empty {
			if err := decodeStrict(trimmed, &d); err != nil {
				return nil, err
			}
		}
		data = d
	default:
		fields := map[string]any{}
		if !empty {
			if err := json.Unmarshal(trimmed, &fields); err != nil {
				return nil, Validation("Step data must be a JSON object", nil)
			}
		}
		data = GenericStepData{Name: stepName, Fields: fields}
	}

	if errs := data.Validate(); len(errs) > 0 {
		return nil, Validation("Invalid step data", errs)
	}
	return data, nil
}

func decodeStrict(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return Validation("Invalid step data", []FieldError{{Field: "data", Message: err.Error()}})
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Validation("Invalid step data", []FieldError{{Field: "data", Message: "unexpected trailing content"}})
	}
	return nil
}

func sortFieldErrors(errs []FieldError) {
	sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
}
