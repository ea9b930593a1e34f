package publish

import (
	"errors"
	"testing"
)

func TestTags(t *testing.T) {
	commit := "0123456789abcdef0123456789abcdef01234567"

	tests := []struct {
		name    string
		variant string
		commit  string
		want    []string
	}{
		{
			name:    "default variant",
			variant: "full",
			commit:  commit,
			want:    []string{"latest", "0123456789ab"},
		},
		{
			name:    "named variant",
			variant: "slim",
			commit:  commit,
			want:    []string{"slim", "0123456789ab-slim"},
		},
		{
			name:    "default variant without commit",
			variant: "full",
			want:    []string{"latest"},
		},
		{
			name:    "named variant without commit",
			variant: "hardened",
			want:    []string{"hardened"},
		},
		{
			name:    "short commit left as-is",
			variant: "full",
			commit:  "abc123",
			want:    []string{"latest", "abc123"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tags(tt.variant, tt.commit)
			if len(got) != len(tt.want) {
				t.Fatalf("Tags() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Tags()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTaggedReferences(t *testing.T) {
	named, err := parseReference("ghcr.io/docbake/site")
	if err != nil {
		t.Fatalf("parseReference: %v", err)
	}

	commit := "9aa9c83b0123456789abcdef0123456789abcdef"

	refs, err := taggedReferences(named, Tags("hardened", commit))
	if err != nil {
		t.Fatalf("taggedReferences: %v", err)
	}

	want := []string{
		"ghcr.io/docbake/site:hardened",
		"ghcr.io/docbake/site:9aa9c83b0123-hardened",
	}
	if len(refs) != len(want) {
		t.Fatalf("len(refs) = %d, want %d", len(refs), len(want))
	}
	for i := range want {
		if refs[i].String() != want[i] {
			t.Errorf("refs[%d] = %q, want %q", i, refs[i].String(), want[i])
		}
	}
}

func TestStageTag(t *testing.T) {
	got := stageTag("product-docs-slim", "linux/arm64")
	want := "product-docs-slim-linux-arm64:latest"
	if got != want {
		t.Fatalf("stageTag = %q, want %q", got, want)
	}
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		want    string
		wantErr bool
	}{
		{
			name: "registry with path",
			ref:  "ghcr.io/docbake/site",
			want: "ghcr.io/docbake/site",
		},
		{
			name: "docker hub shorthand",
			ref:  "docbake/site",
			want: "docker.io/docbake/site",
		},
		{
			name:    "tag rejected",
			ref:     "ghcr.io/docbake/site:latest",
			wantErr: true,
		},
		{
			name:    "digest rejected",
			ref:     "ghcr.io/docbake/site@sha256:0123456789012345678901234567890123456789012345678901234567890123",
			wantErr: true,
		},
		{
			name:    "invalid characters",
			ref:     "ghcr.io/Docbake/SITE!!",
			wantErr: true,
		},
		{
			name:    "empty",
			ref:     "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			named, err := parseReference(tt.ref)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReference) {
					t.Fatalf("parseReference(%q) error = %v, want ErrInvalidReference", tt.ref, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseReference(%q) error = %v", tt.ref, err)
			}
			if named.Name() != tt.want {
				t.Errorf("Name() = %q, want %q", named.Name(), tt.want)
			}
		})
	}
}
