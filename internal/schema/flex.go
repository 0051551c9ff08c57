package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexString accepts a JSON string or number and stores the string form.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}
	return fmt.Errorf("value %s is neither string nor number", data)
}

func (f FlexString) String() string { return string(f) }

// FlexNumber accepts a JSON number or a numeric string and stores a float64.
type FlexNumber float64

func (f *FlexNumber) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexNumber(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("value %s is neither number nor string", data)
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("value %q is not numeric", s)
	}
	*f = FlexNumber(parsed)
	return nil
}

func (f FlexNumber) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

func (f FlexNumber) Float64() float64 { return float64(f) }
