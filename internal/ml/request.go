package ml

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	"carprice/internal/car"

	"github.com/go-playground/validator/v10"
)

// PredictionRequest is the inference payload. Pointer fields distinguish an
// absent key from a zero value.
type PredictionRequest struct {
	Brand          *string  `json:"brand" validate:"required"`
	Year           *int     `json:"year" validate:"required"`
	Mileage        *float64 `json:"mileage" validate:"required"`
	FuelType       *string  `json:"fuelType" validate:"required"`
	Transmission   *string  `json:"transmission" validate:"required"`
	EngineSize     *float64 `json:"engineSize" validate:"required"`
	Horsepower     *int     `json:"horsepower" validate:"required"`
	BodyType       *string  `json:"bodyType" validate:"required"`
	Doors          *int     `json:"doors" validate:"required"`
	PreviousOwners *int     `json:"previousOwners" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// Record checks that every key is present and converts the request.
func (p PredictionRequest) Record() (car.Record, error) {
	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return car.Record{}, err
		}
		missing := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			missing = append(missing, fe.Field())
		}
		return car.Record{}, &ValidationError{Missing: missing}
	}
	return car.Record{
		Brand:          *p.Brand,
		Year:           *p.Year,
		Mileage:        *p.Mileage,
		FuelType:       *p.FuelType,
		Transmission:   *p.Transmission,
		EngineSize:     *p.EngineSize,
		Horsepower:     *p.Horsepower,
		BodyType:       *p.BodyType,
		Doors:          *p.Doors,
		PreviousOwners: *p.PreviousOwners,
	}, nil
}

// DecodePredictionRequest parses a JSON body into a Record. A body that is
// not a single JSON object is a ValidationError on "body"; otherwise every key
// of the wrong type and every absent key is reported in one ValidationError.
func DecodePredictionRequest(body []byte) (car.Record, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&raw); err != nil || raw == nil {
		return car.Record{}, badBody("must be a JSON object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return car.Record{}, badBody("must contain a single JSON object")
	}

	var req PredictionRequest
	var invalid []car.Problem
	v := reflect.ValueOf(&req).Elem()
	for i := 0; i < v.NumField(); i++ {
		name := jsonName(v.Type().Field(i))
		value, ok := raw[name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, v.Field(i).Addr().Interface()); err != nil {
			reason := "has an invalid value"
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				reason = fmt.Sprintf("must be a %s", typeErr.Type)
			}
			invalid = append(invalid, car.Problem{Field: name, Reason: reason})
		}
	}

	rec, err := req.Record()
	if err == nil && len(invalid) == 0 {
		return rec, nil
	}
	var vErr *ValidationError
	if err != nil && !errors.As(err, &vErr) {
		return car.Record{}, err
	}
	if len(invalid) == 0 {
		return car.Record{}, vErr
	}
	// A key that failed to decode may be left nil or zero-allocated; it is
	// reported once, as invalid.
	var missing []string
	if vErr != nil {
		for _, name := range vErr.Missing {
			if !slices.ContainsFunc(invalid, func(p car.Problem) bool { return p.Field == name }) {
				missing = append(missing, name)
			}
		}
	}
	return car.Record{}, &ValidationError{Missing: missing, Invalid: invalid}
}

func badBody(reason string) error {
	return &ValidationError{Invalid: []car.Problem{{Field: "body", Reason: reason}}}
}
