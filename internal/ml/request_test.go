package ml

import (
	"math"
	"strings"
	"testing"

	"carprice/internal/car"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toyotaJSON = `{
	"brand": "Toyota", "year": 2020, "mileage": 30000, "fuelType": "Petrol",
	"transmission": "Automatic", "engineSize": 2.0, "horsepower": 150,
	"bodyType": "Sedan", "doors": 4, "previousOwners": 1
}`

func TestDecodePredictionRequest(t *testing.T) {
	r, err := DecodePredictionRequest([]byte(toyotaJSON))
	require.NoError(t, err)
	assert.Equal(t, toyota(), r)
}

func TestDecodePredictionRequest_ZeroValuesArePresent(t *testing.T) {
	r, err := DecodePredictionRequest([]byte(`{
		"brand": "Ford", "year": 2015, "mileage": 0, "fuelType": "Diesel",
		"transmission": "Manual", "engineSize": 1.6, "horsepower": 90,
		"bodyType": "Hatchback", "doors": 2, "previousOwners": 0
	}`))
	require.NoError(t, err)
	assert.Zero(t, r.Mileage)
	assert.Zero(t, r.PreviousOwners)
}

func TestDecodePredictionRequest_Missing(t *testing.T) {
	_, err := DecodePredictionRequest([]byte(`{
		"brand": "Toyota", "year": 2020, "fuelType": "Petrol",
		"transmission": "Automatic", "engineSize": 2.0, "horsepower": 150,
		"bodyType": "Sedan", "doors": 4, "previousOwners": 1
	}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"mileage"}, vErr.Missing)
	assert.Contains(t, err.Error(), "mileage")

	_, err = DecodePredictionRequest([]byte(`{}`))
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{
		"brand", "year", "mileage", "fuelType", "transmission",
		"engineSize", "horsepower", "bodyType", "doors", "previousOwners",
	}, vErr.Missing)
}

func TestDecodePredictionRequest_BadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `brand=Toyota`},
		{"array", `[]`},
		{"null", `null`},
		{"trailing object", toyotaJSON + `{}`},
		{"trailing garbage", toyotaJSON + ` x`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePredictionRequest([]byte(tt.body))
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, []string{"body"}, vErr.Fields())
		})
	}
}

func TestDecodePredictionRequest_WrongTypeWithAllKeysPresent(t *testing.T) {
	body := strings.Replace(toyotaJSON, `"year": 2020`, `"year": "2020"`, 1)
	_, err := DecodePredictionRequest([]byte(body))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, vErr.Missing)
	assert.Equal(t, []string{"year"}, vErr.Fields())
}

func TestDecodePredictionRequest_TrailingWhitespace(t *testing.T) {
	r, err := DecodePredictionRequest([]byte(toyotaJSON + "\n\t "))
	require.NoError(t, err)
	assert.Equal(t, toyota(), r)
}

func TestDecodePredictionRequest_ReportsEveryField(t *testing.T) {
	_, err := DecodePredictionRequest([]byte(`{
		"brand": 7, "year": "2020", "mileage": 30000, "fuelType": "Petrol",
		"transmission": "Automatic", "engineSize": 2.0, "horsepower": 150.5,
		"bodyType": "Sedan"
	}`))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []string{"doors", "previousOwners"}, vErr.Missing)
	assert.Equal(t, []car.Problem{
		{Field: "brand", Reason: "must be a string"},
		{Field: "year", Reason: "must be a int"},
		{Field: "horsepower", Reason: "must be a int"},
	}, vErr.Invalid)
}

func TestInterval(t *testing.T) {
	tests := []struct {
		name         string
		price, mae   float64
		lower, upper float64
	}{
		{"symmetric", 20000, 1000, 18040, 21960},
		{"clamped", 1000, 1000, 0, 2960},
		{"zero mae", 5000, 0, 5000, 5000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Interval(tt.price, tt.mae)
			assert.InDelta(t, tt.lower, c.Lower, 1e-9)
			assert.InDelta(t, tt.upper, c.Upper, 1e-9)
		})
	}
}

func TestInterval_Brackets(t *testing.T) {
	for _, price := range []float64{0, 1, 499.5, 5000, 1e5, 3.2e6} {
		for _, mae := range []float64{0, 0.5, 250, 4000, 1e6} {
			c := Interval(price, mae)
			assert.LessOrEqual(t, c.Lower, price)
			assert.GreaterOrEqual(t, c.Upper, price)
			assert.GreaterOrEqual(t, c.Lower, 0.0)
			assert.False(t, math.IsNaN(c.Lower) || math.IsNaN(c.Upper))
		}
	}
}
