// Package models contains domain models and utility types.
package models

import (
	"encoding/json"
	"strconv"
)

// FlexInt is an int that can be unmarshaled from either a JSON number or string.
// This is useful when parsing LLM responses that may return numbers as strings
// (e.g., "count": "5" instead of "count": 5).
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler for FlexInt.
// It accepts both numeric values and string representations of numbers.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	// Try to unmarshal as an int first
	var intVal int
	if err := json.Unmarshal(data, &intVal); err == nil {
		*f = FlexInt(intVal)
		return nil
	}

	// Try to unmarshal as a string and convert
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if strVal == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.Atoi(strVal)
		if err != nil {
			// If not a valid number string, default to 0
			*f = 0
			return nil
		}
		*f = FlexInt(parsed)
		return nil
	}

	// Default to 0 for other cases (null, etc.)
	*f = 0
	return nil
}

// MarshalJSON implements json.Marshaler for FlexInt.
// Always marshals as a numeric value.
func (f FlexInt) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(f))
}

// Int returns the FlexInt as a standard int.
func (f FlexInt) Int() int {
	return int(f)
}

// FlexFloat is a float64 that can be unmarshaled from either a JSON number or
// string. LLM collaborators occasionally return confidence scores quoted as
// strings (e.g. "confidence_score": "0.8"); this tolerates both forms.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler for FlexFloat.
func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexFloat(floatVal)
		return nil
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		if strVal == "" {
			*f = 0
			return nil
		}
		parsed, err := strconv.ParseFloat(strVal, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = FlexFloat(parsed)
		return nil
	}

	*f = 0
	return nil
}

// MarshalJSON implements json.Marshaler for FlexFloat.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// Float64 returns the FlexFloat as a standard float64.
func (f FlexFloat) Float64() float64 {
	return float64(f)
}
