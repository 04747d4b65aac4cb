package commandstructure

import (
	"testing"
)

func TestGetStringParam(t *testing.T) {
	params := map[string]any{
		"key1": "value1",
		"key2": 123,
	}

	if val := GetStringParam(params, "key1", "default"); val != "value1" {
		t.Errorf("Expected 'value1', got '%s'", val)
	}
	if val := GetStringParam(params, "key2", "default"); val != "default" {
		t.Errorf("Expected 'default', got '%s'", val)
	}
	if val := GetStringParam(params, "key3", "default"); val != "default" {
		t.Errorf("Expected 'default', got '%s'", val)
	}
}

func TestGetIntParam(t *testing.T) {
	params := map[string]any{
		"key1": 123,
		"key2": int64(456),
		"key3": float64(789),
		"key4": "not-an-int",
	}

	tests := []struct {
		key  string
		want int
	}{
		{"key1", 123},
		{"key2", 456},
		{"key3", 789},
		{"key4", 999},
		{"key5", 999},
	}
	for _, tt := range tests {
		if val := GetIntParam(params, tt.key, 999); val != tt.want {
			t.Errorf("GetIntParam(%s): expected %d, got %d", tt.key, tt.want, val)
		}
	}
}

func TestGetBoolParam(t *testing.T) {
	params := map[string]any{
		"native":  true,
		"upper":   "TRUE",
		"false":   " false ",
		"garbage": "maybe",
		"number":  1,
	}

	tests := []struct {
		key          string
		defaultValue bool
		want         bool
	}{
		{"native", false, true},
		{"upper", false, true},
		{"false", true, false},
		{"garbage", true, true},
		{"number", false, false},
		{"missing", true, true},
	}
	for _, tt := range tests {
		if got := GetBoolParam(params, tt.key, tt.defaultValue); got != tt.want {
			t.Errorf("GetBoolParam(%s): expected %t, got %t", tt.key, tt.want, got)
		}
	}
}

func TestValidateRequiredParams(t *testing.T) {
	params := map[string]any{
		"param1": "value1",
		"param2": 123,
	}

	if err := ValidateRequiredParams(params, []string{"param1", "param2"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if err := ValidateRequiredParams(params, []string{"param1", "param3"}); err == nil {
		t.Error("Expected error for missing required param")
	}
	if err := ValidateRequiredParams(params, []string{}); err != nil {
		t.Errorf("Expected no error for empty required list, got %v", err)
	}
}
