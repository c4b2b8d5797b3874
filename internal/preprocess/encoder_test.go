package preprocess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitEncoder_FirstSeenOrder(t *testing.T) {
	e := FitEncoder([]string{"Honda", "BMW", "Honda", "Audi", "BMW"})

	assert.Equal(t, []string{"Honda", "BMW", "Audi"}, e.Classes())
	assert.Equal(t, 3, e.Len())

	for want, v := range []string{"Honda", "BMW", "Audi"} {
		code, known := e.Encode(v)
		assert.True(t, known)
		assert.Equal(t, want, code)
	}
}

func TestEncoder_RoundTrip(t *testing.T) {
	values := []string{"Sedan", "SUV", "Coupe", "Wagon"}
	e := FitEncoder(values)
	for _, v := range values {
		code, known := e.Encode(v)
		require.True(t, known)
		got, err := e.Decode(code)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestEncoder_UnseenFallsBackToFirstClass(t *testing.T) {
	e := FitEncoder([]string{"Petrol", "Diesel"})

	first, _ := e.Encode("Petrol")
	for i := 0; i < 3; i++ {
		code, known := e.Encode("Hydrogen")
		assert.False(t, known)
		assert.Equal(t, first, code)
	}
	decoded, err := e.Decode(0)
	require.NoError(t, err)
	assert.Equal(t, "Petrol", decoded)
}

func TestEncoder_DecodeOutOfRange(t *testing.T) {
	e := FitEncoder([]string{"a"})
	_, err := e.Decode(1)
	assert.Error(t, err)
	_, err = e.Decode(-1)
	assert.Error(t, err)
}

func TestNewEncoder_Rejects(t *testing.T) {
	_, err := NewEncoder(nil)
	assert.Error(t, err)
	_, err = NewEncoder([]string{"x", "y", "x"})
	assert.Error(t, err)
}

func TestEncoder_JSONRoundTrip(t *testing.T) {
	e := FitEncoder([]string{"Manual", "Automatic"})
	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"classes":["Manual","Automatic"]}`, string(data))

	var back Encoder
	require.NoError(t, json.Unmarshal(data, &back))
	code, known := back.Encode("Automatic")
	assert.True(t, known)
	assert.Equal(t, 1, code)

	assert.Error(t, json.Unmarshal([]byte(`{"classes":[]}`), &back))
}
