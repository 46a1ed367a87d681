package validator

import "testing"

func TestIsValidEmail(t *testing.T) {
	valid := []string{
		"ada@example.com",
		"first.last@sub.example.co",
		"x+tag@example.org",
	}
	invalid := []string{
		"",
		"not-an-email",
		"@example.com",
		"ada@",
		"Ada Jones <ada@example.com>",
	}

	for _, email := range valid {
		if err := IsValidEmail(email); err != nil {
			t.Errorf("Expected %q to be valid, got %v", email, err)
		}
	}
	for _, email := range invalid {
		if err := IsValidEmail(email); err == nil {
			t.Errorf("Expected %q to be invalid", email)
		}
	}
}
