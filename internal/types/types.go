// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles:
// handlers, service, storage backends and utils can all import types
// without depending on each other.
package types

import (
	"encoding/json"
	"math"
)

// Gender values accepted on a patient record.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Verdict labels derived from BMI.
const (
	VerdictUnderweight = "Underweight"
	VerdictNormal      = "Normal"
	VerdictObese       = "Obese"
)

// BMI thresholds (kg/m²). Everything from underweightBelow up to
// obeseFrom is reported as Normal.
const (
	underweightBelow = 18.5
	obeseFrom        = 30
)

// Record is the persisted part of a patient: every field except the id,
// which is the collection key.
//
// Struct tags:
//
//  1. json:"..."     the wire and storage names.
//  2. validate:"..." rules checked by go-playground/validator.
type Record struct {
	Name   string  `json:"name"   validate:"required"`
	City   string  `json:"city"`
	Age    int     `json:"age"    validate:"gt=0,lt=120"`
	Gender string  `json:"gender" validate:"oneof=male female other"`
	Height float64 `json:"height" validate:"gt=0"`
	Weight float64 `json:"weight" validate:"gt=0"`
}

// BMI returns weight / height², rounded to two decimals.
func (r Record) BMI() float64 {
	return BMI(r.Height, r.Weight)
}

// Verdict returns the health verdict for the record's BMI.
func (r Record) Verdict() string {
	return VerdictFor(r.BMI())
}

// Patient is a Record together with its id.
type Patient struct {
	ID string `json:"id" validate:"required"`
	Record
}

// View returns the patient with its derived fields filled in.
func (p Patient) View() PatientView {
	return PatientView{ID: p.ID, Record: p.Record, BMI: p.BMI(), Verdict: p.Verdict()}
}

// MarshalJSON always emits the derived fields so they can never go stale.
func (p Patient) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.View())
}

// PatientView is the response form of a patient. ID is omitted when the
// view is nested under its id in a collection listing.
type PatientView struct {
	ID string `json:"id,omitempty"`
	Record
	BMI     float64 `json:"bmi"`
	Verdict string  `json:"verdict"`
}

// PatientRequest is the body of a create request. Every field is a pointer
// so a missing field can be told apart from a zero value.
type PatientRequest struct {
	ID     *string  `json:"id"     validate:"required"`
	Name   *string  `json:"name"   validate:"required"`
	City   *string  `json:"city"   validate:"required"`
	Age    *int     `json:"age"    validate:"required"`
	Gender *string  `json:"gender" validate:"required"`
	Height *float64 `json:"height" validate:"required"`
	Weight *float64 `json:"weight" validate:"required"`
}

// Patient converts the request into a Patient. Call it only after the
// request passed validation; nil fields become zero values.
func (r PatientRequest) Patient() Patient {
	var p Patient
	if r.ID != nil {
		p.ID = *r.ID
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.City != nil {
		p.City = *r.City
	}
	if r.Age != nil {
		p.Age = *r.Age
	}
	if r.Gender != nil {
		p.Gender = *r.Gender
	}
	if r.Height != nil {
		p.Height = *r.Height
	}
	if r.Weight != nil {
		p.Weight = *r.Weight
	}
	return p
}

// BMI computes weight(kg) / height(m)², rounded half away from zero to
// two decimals. A non-positive height yields 0 instead of Inf or NaN so
// that a damaged stored record still sorts.
func BMI(height, weight float64) float64 {
	if height <= 0 {
		return 0
	}
	return math.Round(weight/(height*height)*100) / 100
}

// VerdictFor maps a BMI to its verdict.
func VerdictFor(bmi float64) string {
	switch {
	case bmi < underweightBelow:
		return VerdictUnderweight
	case bmi < obeseFrom:
		return VerdictNormal
	default:
		return VerdictObese
	}
}
