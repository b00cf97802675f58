package accessor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGetter(t *testing.T) {
	tests := []struct {
		name   string
		params int
		want   bool
	}{
		{"getName", 0, true},
		{"isActive", 0, true},
		{"getX", 0, true},
		{"getName", 1, false},
		{"get", 0, false},
		{"is", 0, false},
		{"getter", 0, false},
		{"issue", 0, false},
		{"name", 0, false},
		{"setName", 0, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsGetter(tt.name, tt.params), "IsGetter(%q, %d)", tt.name, tt.params)
	}
}

func TestIsSetter(t *testing.T) {
	tests := []struct {
		name   string
		params int
		want   bool
	}{
		{"setName", 1, true},
		{"setName", 0, false},
		{"setName", 2, false},
		{"set", 1, false},
		{"settle", 1, false},
		{"getName", 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSetter(tt.name, tt.params), "IsSetter(%q, %d)", tt.name, tt.params)
	}
}

func TestPropertyName(t *testing.T) {
	tests := map[string]string{
		"getName":      "name",
		"isActive":     "active",
		"setFirstName": "firstName",
		"getX":         "x",
		"getÉtat":      "état",
		"plain":        "plain",
	}
	for in, want := range tests {
		assert.Equal(t, want, PropertyName(in), "PropertyName(%q)", in)
	}
}
