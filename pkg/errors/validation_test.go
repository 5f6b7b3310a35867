package errors

import (
	"testing"
)

func TestValidateTypeID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid internal", "ap.tool.http", false},
		{"valid canonical", "trigger.webhook", false},
		{"valid with dash", "ap.tool.my-api", false},
		{"valid with underscore", "ap.memory.kv_store", false},

		{"empty", "", true},
		{"single segment", "agent", true},
		{"uppercase", "ap.Tool.http", true},
		{"trailing dot", "ap.tool.", true},
		{"path traversal", "ap/../tool", true},
		{"space", "ap.tool http", true},
		{"too long", "a." + string(make([]byte, 200)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTypeID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTypeID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateTypeID(%q) code = %v", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidateGraphID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"uuid", "0b9c6a1e-3f0d-4c55-9f5b-1d2a3b4c5d6e", false},
		{"empty", "", true},
		{"not a uuid", "graph-1", true},
		{"injection", "1'; DROP TABLE graphs; --", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGraphID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGraphID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "graph.json", false},
		{"valid nested", "flows/support/graph.yaml", false},
		{"valid with dots", "flows/v1.2/graph.json", false},

		{"empty", "", true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret.json", true},
		{"traversal middle", "flows/../../secret.json", true},
		{"backslash", "flows\\graph.json", true},
		{"null byte", "graph\x00.json", true},
		{"control char", "graph\x01.json", true},
		{"too long", string(make([]byte, 600)), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
