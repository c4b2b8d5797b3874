// Package preprocess holds the fitted transforms applied to model inputs:
// label encoding of categorical columns and standardization of the numeric
// feature matrix. Both are fitted once per trained model and are read-only
// afterwards, so they may be shared between goroutines.
package preprocess

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Encoder maps the values of one categorical column to dense integer codes.
// Codes are assigned in first-seen order starting at zero.
type Encoder struct {
	classes []string
	index   map[string]int
}

// FitEncoder registers every distinct value of values in the order it first
// appears.
func FitEncoder(values []string) *Encoder {
	e := &Encoder{index: make(map[string]int)}
	for _, v := range values {
		if _, ok := e.index[v]; ok {
			continue
		}
		e.index[v] = len(e.classes)
		e.classes = append(e.classes, v)
	}
	return e
}

// NewEncoder rebuilds an encoder from its ordered vocabulary.
func NewEncoder(classes []string) (*Encoder, error) {
	if len(classes) == 0 {
		return nil, errors.New("encoder vocabulary is empty")
	}
	e := &Encoder{
		classes: make([]string, len(classes)),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range classes {
		if _, dup := e.index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		e.index[c] = i
		e.classes[i] = c
	}
	return e, nil
}

// Encode returns the code of v. Values never seen during fitting are replaced
// by the first registered class, and known is false.
func (e *Encoder) Encode(v string) (code int, known bool) {
	if c, ok := e.index[v]; ok {
		return c, true
	}
	return 0, false
}

// Decode returns the class registered under code.
func (e *Encoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("code %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// Classes returns a copy of the vocabulary in code order.
func (e *Encoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}

func (e *Encoder) Len() int { return len(e.classes) }

type encoderJSON struct {
	Classes []string `json:"classes"`
}

func (e *Encoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(encoderJSON{Classes: e.classes})
}

func (e *Encoder) UnmarshalJSON(data []byte) error {
	var raw encoderJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rebuilt, err := NewEncoder(raw.Classes)
	if err != nil {
		return err
	}
	*e = *rebuilt
	return nil
}
