package service

import (
	"fmt"
	"sort"

	"github.com/aanand-mishra/patients-api/internal/types"
)

// SortField names the numeric field patients can be ordered by.
type SortField string

const (
	SortByHeight SortField = "height"
	SortByWeight SortField = "weight"
	SortByBMI    SortField = "bmi"
)

// SortFields lists the accepted sort fields.
var SortFields = []SortField{SortByHeight, SortByWeight, SortByBMI}

// SortOrder is asc or desc.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// ParseSortField validates s against SortFields.
func ParseSortField(s string) (SortField, error) {
	for _, f := range SortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: invalid field %q, select from %v", ErrInvalidArgument, s, SortFields)
}

// ParseSortOrder validates s as asc or desc.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case Asc, Desc:
		return SortOrder(s), nil
	}
	return "", fmt.Errorf("%w: invalid order %q, select between 'asc' and 'desc'", ErrInvalidArgument, s)
}

// key returns the value p is ordered by. BMI is derived on the spot.
func (f SortField) key(p types.Patient) float64 {
	switch f {
	case SortByHeight:
		return p.Height
	case SortByWeight:
		return p.Weight
	case SortByBMI:
		return p.BMI()
	}
	return 0
}

// sortPatients orders patients in place by field. The sort is stable in
// both directions: patients with equal keys keep their storage order.
func sortPatients(patients []types.Patient, field SortField, order SortOrder) {
	type keyed struct {
		p   types.Patient
		key float64
	}

	ks := make([]keyed, len(patients))
	for i, p := range patients {
		ks[i] = keyed{p: p, key: field.key(p)}
	}

	sort.SliceStable(ks, func(i, j int) bool {
		if order == Desc {
			return ks[i].key > ks[j].key
		}
		return ks[i].key < ks[j].key
	})

	for i := range ks {
		patients[i] = ks[i].p
	}
}
