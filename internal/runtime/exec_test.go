package runtime

import (
	"io"
	"sort"
	"strings"
	"testing"
)

func TestMergeEnvInstallerFlow(t *testing.T) {
	// Base mirrors what a python image ships; overrides mirror what the
	// variant recipes layer on top during pip installs and venv activation.
	base := []string{
		"PATH=/usr/local/bin:/usr/bin:/bin",
		"PYTHON_VERSION=3.12",
	}

	tests := []struct {
		name      string
		overrides []string
		want      []string
	}{
		{
			name: "installer env added",
			overrides: []string{
				"PIP_NO_CACHE_DIR=1",
				"PLAYWRIGHT_BROWSERS_PATH=/opt/browsers",
			},
			want: []string{
				"PATH=/usr/local/bin:/usr/bin:/bin",
				"PIP_NO_CACHE_DIR=1",
				"PLAYWRIGHT_BROWSERS_PATH=/opt/browsers",
				"PYTHON_VERSION=3.12",
			},
		},
		{
			name:      "venv path wins over image path",
			overrides: []string{"PATH=/opt/venv/bin:/usr/local/bin:/usr/bin:/bin"},
			want: []string{
				"PATH=/opt/venv/bin:/usr/local/bin:/usr/bin:/bin",
				"PYTHON_VERSION=3.12",
			},
		},
		{
			name:      "no overrides",
			overrides: nil,
			want:      base,
		},
		{
			name:      "malformed entries skipped",
			overrides: []string{"BROKEN", "PIP_DISABLE_PIP_VERSION_CHECK=1"},
			want: []string{
				"PATH=/usr/local/bin:/usr/bin:/bin",
				"PIP_DISABLE_PIP_VERSION_CHECK=1",
				"PYTHON_VERSION=3.12",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeEnv(base, tt.overrides)
			sort.Strings(got)

			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d\ngot:  %v\nwant: %v", len(got), len(tt.want), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMergeEnvValueWithEquals(t *testing.T) {
	got := mergeEnv([]string{"CMD=mkdocs serve --dev-addr=0.0.0.0:8000"}, nil)
	if len(got) != 1 || got[0] != "CMD=mkdocs serve --dev-addr=0.0.0.0:8000" {
		t.Fatalf("got %v, want value with equals preserved", got)
	}
}

func TestNextExecID(t *testing.T) {
	a := nextExecID()
	b := nextExecID()
	if a == b {
		t.Fatalf("nextExecID returned duplicate: %q", a)
	}
	if a == "" || b == "" {
		t.Fatal("nextExecID returned empty string")
	}
}

func TestNotifyEOF(t *testing.T) {
	body := "mkdocs==1.6.1\nmkdocs-material>=9.5,<10\n"
	r, drained := notifyEOF(strings.NewReader(body))

	select {
	case <-drained:
		t.Fatal("drained before any read")
	default:
	}

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != body {
		t.Fatalf("read %q, want %q", data, body)
	}

	select {
	case <-drained:
	default:
		t.Fatal("drained channel not closed after EOF")
	}
}
