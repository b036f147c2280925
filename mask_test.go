package mold

import (
	"errors"
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		typ  MaskType
		in   string
		want string
	}{
		{MaskSSN, "123-45-6789", "***-**-6789"},
		{MaskEmail, "alice@example.com", "a***@example.com"},
		{MaskEmail, "broken", "******"},
		{MaskPhone, "(555) 123-4567", "(***) ***-4567"},
		{MaskPhone, "555-123-4567", "***-***-4567"},
		{MaskCard, "4111111111111111", "************1111"},
		{MaskCard, "4111 1111 1111 1111", "**** **** **** 1111"},
		{MaskIP, "192.168.1.100", "192.168.xxx.xxx"},
		{MaskIP, "2001:db8::1", "2001:0db8:0000:0000:xxxx:xxxx:xxxx:xxxx"},
		{MaskUUID, "550e8400-e29b-41d4-a716-446655440000", "550e8400-****-****-****-************"},
		{MaskIBAN, "GB82WEST12345698765432", "GB82**************5432"},
		{MaskName, "John Smith", "J*** S****"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ)+"/"+tt.in, func(t *testing.T) {
			m, err := NewMask(tt.typ)
			if err != nil {
				t.Fatalf("NewMask() error: %v", err)
			}
			got, err := m.Process(tt.in, nil)
			if err != nil {
				t.Fatalf("Process() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMask_PassThrough(t *testing.T) {
	m, _ := NewMask(MaskSSN)
	if got, _ := m.Process(42, nil); got != 42 {
		t.Errorf("non-string = %v, want 42", got)
	}
	if got, _ := m.Process("", nil); got != "" {
		t.Errorf("empty = %v, want empty", got)
	}
}

func TestNewMask_Unknown(t *testing.T) {
	if _, err := NewMask("bogus"); !errors.Is(err, ErrInvalidTag) {
		t.Errorf("expected ErrInvalidTag, got %v", err)
	}
}
