package services

import "testing"

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"strong password", "Sunrise42!", false},
		{"too short", "Ab1", true},
		{"no digit", "Passwordonly", true},
		{"digits only still passes", "12345678", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validatePassword(tc.password)
			if (err != nil) != tc.wantErr {
				t.Errorf("validatePassword(%q) error = %v, wantErr %v", tc.password, err, tc.wantErr)
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	a, err := generateToken(32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars for 32 bytes, got %d", len(a))
	}

	b, _ := generateToken(32)
	if a == b {
		t.Error("expected successive tokens to differ")
	}
}
