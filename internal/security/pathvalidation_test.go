package security

import "testing"

func TestSanitizeComponent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"car", "car"},
		{"track-42", "track-42"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{"a/b\\c", "a_b_c"},
		{"", "unknown"},
		{"...", "unknown"},
		{"söme çlass", "s_me__lass"},
	}

	for _, tt := range tests {
		if got := SanitizeComponent(tt.in); got != tt.want {
			t.Errorf("SanitizeComponent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()

	if err := ValidatePathWithinDirectory(dir+"/car_1.jpg", dir); err != nil {
		t.Errorf("path inside directory rejected: %v", err)
	}
	if err := ValidatePathWithinDirectory(dir+"/sub/car_1.jpg", dir); err != nil {
		t.Errorf("nested path rejected: %v", err)
	}
	if err := ValidatePathWithinDirectory(dir+"/../escape.jpg", dir); err == nil {
		t.Error("expected error for traversal outside directory")
	}
	if err := ValidatePathWithinDirectory("/etc/passwd", dir); err == nil {
		t.Error("expected error for absolute path outside directory")
	}
}
