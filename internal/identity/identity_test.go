package identity

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want Email
	}{
		{"Alice@Gmail.com", "alice@gmail.com"},
		{"  bob@gmail.com ", "bob@gmail.com"},
		{"CAROL@GMAIL.COM", "carol@gmail.com"},
		{"", ""},
	}
	for _, test := range tests {
		if got := Normalize(test.raw); got != test.want {
			t.Errorf("Normalize(%q) = %q, expected %q", test.raw, got, test.want)
		}
	}
}

func TestMatches(t *testing.T) {
	email := Normalize("alice@gmail.com")
	if !email.Matches("Alice@Gmail.COM") {
		t.Error("Expected case-insensitive match")
	}
	if email.Matches("bob@gmail.com") {
		t.Error("Did not expect a match for a different address")
	}
}

func TestPrincipalCapabilities(t *testing.T) {
	p := NewPrincipal("admin@gmail.com", CapUser, CapEditor)
	if !p.Can(CapUser) || !p.Can(CapEditor) {
		t.Error("Expected principal to hold granted capabilities")
	}

	student := NewPrincipal("student@gmail.com", CapUser)
	if student.Can(CapEditor) {
		t.Error("Did not expect editor capability")
	}
}
