package language

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"en", "en", true},
		{"RU", "ru", true},
		{"ru-RU", "ru", true},
		{"Russian", "ru", true},
		{"english", "en", true},
		{"de", "", false},
		{"", "", false},
		{"???", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if ok != tt.ok || got.Code != tt.want {
			t.Errorf("Parse(%q) = %q,%v want %q,%v", tt.in, got.Code, ok, tt.want, tt.ok)
		}
	}
}

func TestNames(t *testing.T) {
	if English.Name != "English" || Russian.Name != "Russian" {
		t.Fatalf("display names: %q %q", English.Name, Russian.Name)
	}
	if OrDefault("klingon").Code != "en" {
		t.Fatalf("default not english")
	}
	if !Russian.IsRussian() || English.IsRussian() {
		t.Fatalf("IsRussian mismatch")
	}
}
