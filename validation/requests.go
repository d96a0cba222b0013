package validation

import (
	"errors"
	"strings"

	"github.com/giygas/medsummary/entities"
)

// Summary messages shown above the signup form
const (
	MsgIncomplete       = "Please complete all fields."
	MsgSecretsDontMatch = "Passwords do not match."
	MsgCheckFields      = "Please check the highlighted fields."
)

// SignupRequest creates the local account
type SignupRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Secret  string `json:"secret" validate:"required,min=4,max=72"`
	Confirm string `json:"confirm" validate:"required,eqfield=Secret"`
}

// LoginRequest opens a session
type LoginRequest struct {
	Name   string `json:"name" validate:"required"`
	Secret string `json:"secret" validate:"required"`
}

// UnlockRequest reopens a locked session
type UnlockRequest struct {
	Secret string `json:"secret" validate:"required"`
}

// FieldUpdate sets one scalar field
type FieldUpdate struct {
	Value string `json:"value" validate:"max=10000"`
}

// RowUpdate sets one key of one row
type RowUpdate struct {
	Key   string `json:"key" validate:"required"`
	Value string `json:"value" validate:"max=10000"`
}

// Signup trims the name and validates the request. A missing field wins
// over a confirmation mismatch in the summary message.
func (v *Validator) Signup(req *SignupRequest) error {
	req.Name = strings.TrimSpace(NormalizeText(req.Name))
	err := v.Struct(req, MsgCheckFields)

	var verr *Error
	if errors.As(err, &verr) {
		_, mismatch := verr.Fields["confirm"]
		switch {
		case hasRequired(verr):
			verr.Message = MsgIncomplete
		case mismatch:
			verr.Message = MsgSecretsDontMatch
		}
	}
	return err
}

func hasRequired(e *Error) bool {
	for _, msg := range e.Fields {
		if strings.HasSuffix(msg, " is required") {
			return true
		}
	}
	return false
}

// Login trims the name and validates the request
func (v *Validator) Login(req *LoginRequest) error {
	req.Name = strings.TrimSpace(NormalizeText(req.Name))
	return v.Struct(req, MsgIncomplete)
}

// Unlock validates an unlock request
func (v *Validator) Unlock(req *UnlockRequest) error {
	return v.Struct(req, MsgIncomplete)
}

// Field validates and cleans a scalar update in place
func (v *Validator) Field(req *FieldUpdate) error {
	if err := v.Struct(req, "Invalid field value"); err != nil {
		return err
	}
	req.Value = NormalizeText(req.Value)
	return nil
}

// Row validates and cleans a row update in place. Diagnosis status is
// restricted to confirmed, suspected or blank.
func (v *Validator) Row(section string, req *RowUpdate) error {
	if err := v.Struct(req, "Invalid row value"); err != nil {
		return err
	}
	req.Value = NormalizeText(req.Value)
	return v.RowValue(section, req.Key, req.Value)
}

// RowValue checks the per-key rules of one row value
func (v *Validator) RowValue(section, key, value string) error {
	if section == entities.SectionDiagnoses && key == "status" {
		return v.Var("status", value, "omitempty,oneof=confirmed suspected")
	}
	return nil
}

// RowValues cleans the values of an added row in place and checks them
func (v *Validator) RowValues(section string, values map[string]string) error {
	for k, val := range values {
		val = NormalizeText(val)
		if err := v.RowValue(section, k, val); err != nil {
			return err
		}
		values[k] = val
	}
	return nil
}
