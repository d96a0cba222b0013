package validation

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSignup(t *testing.T) {
	v := New()

	testCases := []struct {
		name        string
		req         SignupRequest
		wantMessage string
		wantFields  []string
	}{
		{"valid", SignupRequest{Name: " Alice ", Secret: "abcd", Confirm: "abcd"}, "", nil},
		{"missing name", SignupRequest{Secret: "abcd", Confirm: "abcd"}, MsgIncomplete, []string{"name"}},
		{"whitespace name", SignupRequest{Name: "   ", Secret: "abcd", Confirm: "abcd"}, MsgIncomplete, []string{"name"}},
		{"mismatch", SignupRequest{Name: "Alice", Secret: "abcd", Confirm: "abce"}, MsgSecretsDontMatch, []string{"confirm"}},
		{"short secret", SignupRequest{Name: "Alice", Secret: "abc", Confirm: "abc"}, MsgCheckFields, []string{"secret"}},
		{"missing wins over mismatch", SignupRequest{Secret: "abcd", Confirm: "x"}, MsgIncomplete, []string{"name", "confirm"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := tc.req
			err := v.Signup(&req)
			if tc.wantMessage == "" {
				if err != nil {
					t.Fatalf("Expected no error, got %v", err)
				}
				if req.Name != "Alice" {
					t.Errorf("Name should be trimmed, got %q", req.Name)
				}
				return
			}

			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Expected *Error, got %v", err)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Error("Validation errors should match ErrInvalid")
			}
			if verr.Message != tc.wantMessage {
				t.Errorf("Expected message %q, got %q", tc.wantMessage, verr.Message)
			}
			for _, f := range tc.wantFields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("Expected field %s in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestFieldMessages(t *testing.T) {
	v := New()
	req := SignupRequest{Name: "Alice", Secret: "ab", Confirm: "ab"}
	err := v.Signup(&req)

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Expected *Error, got %v", err)
	}
	if verr.Fields["secret"] != "secret must be at least 4 characters" {
		t.Errorf("Unexpected message %q", verr.Fields["secret"])
	}
}

func TestRowValue(t *testing.T) {
	v := New()

	for _, status := range []string{"", "confirmed", "suspected"} {
		if err := v.RowValue("diagnoses", "status", status); err != nil {
			t.Errorf("Status %q should be valid, got %v", status, err)
		}
	}
	if err := v.RowValue("diagnoses", "status", "maybe"); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid for unknown status, got %v", err)
	}
	if err := v.RowValue("allergies", "status", "maybe"); err != nil {
		t.Errorf("Only diagnoses have a status rule, got %v", err)
	}

	values := map[string]string{"status": "confirmed", "name": "ME/CFS\x00"}
	if err := v.RowValues("diagnoses", values); err != nil {
		t.Fatalf("RowValues failed: %v", err)
	}
	if values["name"] != "ME/CFS" {
		t.Errorf("Values should be cleaned in place, got %q", values["name"])
	}
}

func TestRowUpdateRequiresKey(t *testing.T) {
	v := New()
	req := RowUpdate{Value: "x"}
	if err := v.Row("doctors", &req); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}

func TestNormalizeText(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "fatigue", "fatigue"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"strips controls", "a\x00b\x1bc\r", "abc"},
		{"composes accents", "Cafe\u0301", "Caf\u00e9"},
		{"drops invalid utf8", "ok\xffok", "okok"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeText(tc.input); got != tc.want {
				t.Errorf("NormalizeText(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}

	long := strings.Repeat("é", MaxTextRunes+50)
	if got := utf8.RuneCountInString(NormalizeText(long)); got != MaxTextRunes {
		t.Errorf("Expected %d runes, got %d", MaxTextRunes, got)
	}
}

func TestFieldUpdateTooLong(t *testing.T) {
	v := New()
	req := FieldUpdate{Value: strings.Repeat("x", MaxTextRunes+1)}
	if err := v.Field(&req); !errors.Is(err, ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
}
