package internal

import "testing"

func TestParseMode(t *testing.T) {
	const key = "DOCBAKED_TEST_MODE"

	tests := []struct {
		name string
		raw  string
		env  string
		want bool
	}{
		{name: "ldflags true", raw: "true", want: true},
		{name: "ldflags false", raw: "false", want: false},
		{name: "ldflags unset", raw: "", want: false},
		{name: "env overrides ldflags off", raw: "false", env: "1", want: true},
		{name: "env overrides ldflags on", raw: "true", env: "0", want: false},
		{name: "unparsable env ignored", raw: "true", env: "banana", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(key, tt.env)
			}
			if got := parseMode(tt.raw, key); got != tt.want {
				t.Fatalf("parseMode(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
