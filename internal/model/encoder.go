// Package model holds the fitted preprocessing and classification artifacts produced by
// the offline training run, and the loader that reads them from disk.
//
// Every artifact is immutable once constructed, so a Bundle can be shared by any number
// of concurrent assessments without locking.
package model

import (
	"fmt"
	"sort"

	"github.com/readmission-risk-server/internal/domain"
)

// LabelEncoder maps the labels seen during fitting to integer codes. Codes are the
// positions of the labels in the sorted class list, as a fitted label encoder assigns
// them.
type LabelEncoder struct {
	field   string
	classes []string
	codes   map[string]int
}

// NewLabelEncoder creates an encoder for field from its fitted class list. The classes
// are sorted before codes are assigned.
func NewLabelEncoder(field string, classes []string) (*LabelEncoder, error) {
	if field == "" {
		return nil, fmt.Errorf("label encoder field is required")
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("label encoder for %s has no classes", field)
	}

	sorted := append([]string(nil), classes...)
	sort.Strings(sorted)

	codes := make(map[string]int, len(sorted))
	for i, c := range sorted {
		if c == "" {
			return nil, fmt.Errorf("label encoder for %s has an empty class", field)
		}
		if _, dup := codes[c]; dup {
			return nil, fmt.Errorf("label encoder for %s has duplicate class %q", field, c)
		}
		codes[c] = i
	}

	return &LabelEncoder{field: field, classes: sorted, codes: codes}, nil
}

// Field returns the record field this encoder applies to.
func (e *LabelEncoder) Field() string {
	return e.field
}

// Classes returns a copy of the fitted classes in code order.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Transform returns the code for value, or an UnknownCategoryError when the value was
// not seen during fitting. There is no fallback code.
func (e *LabelEncoder) Transform(value string) (int, error) {
	code, ok := e.codes[value]
	if !ok {
		return 0, domain.NewUnknownCategoryError(e.field, value, e.classes)
	}
	return code, nil
}
