// internal/validate/validate_test.go
package validate

import (
	"errors"
	"testing"
	"time"
)

func TestEmail(t *testing.T) {
	cases := []struct {
		in string
		ok bool
	}{
		{"name@domain.com", true},
		{"first.last+tag@sub.example.org", true},
		{"", false},
		{"no-at-sign.com", false},
		{"name@", false},
		{"@domain.com", false},
		{"a b@domain.com", false},
		{"a@@b.com", false},
	}
	for _, c := range cases {
		err := Email(c.in)
		if (err == nil) != c.ok {
			t.Fatalf("Email(%q) err=%v want ok=%v", c.in, err, c.ok)
		}
		if err != nil && !errors.Is(err, ErrValidation) {
			t.Fatalf("Email(%q) err=%v should match ErrValidation", c.in, err)
		}
	}
}

func TestPhone(t *testing.T) {
	for _, ok := range []string{"+1 (555) 123-4567", "0912345678", "+886-2-1234-5678"} {
		if err := Phone(ok); err != nil {
			t.Fatalf("Phone(%q) err=%v", ok, err)
		}
	}
	for _, bad := range []string{"", "12345", "phone", "+1 555 123 4567 8901 2345"} {
		if err := Phone(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("Phone(%q) want ErrValidation, got %v", bad, err)
		}
	}
}

func TestSSN(t *testing.T) {
	for _, ok := range []string{"123-45-6789", "123456789"} {
		if err := SSN(ok); err != nil {
			t.Fatalf("SSN(%q) err=%v", ok, err)
		}
	}
	for _, bad := range []string{"000-12-3456", "666-12-3456", "900-12-3456", "123-00-4567", "123-45-0000", "12-345-6789"} {
		if err := SSN(bad); !errors.Is(err, ErrValidation) {
			t.Fatalf("SSN(%q) want ErrValidation, got %v", bad, err)
		}
	}
}

func TestDOB(t *testing.T) {
	now := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if err := DOB("1990-05-17", now); err != nil {
		t.Fatalf("DOB err=%v", err)
	}
	for _, bad := range []string{"17/05/1990", "2027-01-01", "1800-01-01", "1990-02-30"} {
		var ve *Error
		if err := DOB(bad, now); !errors.As(err, &ve) || ve.Field != "dob" {
			t.Fatalf("DOB(%q) want dob error, got %v", bad, err)
		}
	}
}
