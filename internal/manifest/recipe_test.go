package manifest

import (
	"errors"
	"testing"
)

func TestParseFrom(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		kind    SourceKind
		value   string
		wantErr bool
	}{
		{
			name:  "image with tag",
			from:  "docker.io/library/python:3.12-slim",
			kind:  SourceImage,
			value: "docker.io/library/python:3.12-slim",
		},
		{
			name:  "short image name normalized",
			from:  "python:3.12-slim",
			kind:  SourceImage,
			value: "docker.io/library/python:3.12-slim",
		},
		{
			name:  "untagged image gets latest",
			from:  "ghcr.io/example/base",
			kind:  SourceImage,
			value: "ghcr.io/example/base:latest",
		},
		{
			name:  "absolute archive path",
			from:  "/tmp/base/image.tar",
			kind:  SourceArchive,
			value: "/tmp/base/image.tar",
		},
		{
			name:  "relative archive path",
			from:  "./dist/image.tar",
			kind:  SourceArchive,
			value: "./dist/image.tar",
		},
		{
			name:  "tar suffix without prefix",
			from:  "dist/image.tar",
			kind:  SourceArchive,
			value: "dist/image.tar",
		},
		{
			name:    "empty source",
			from:    "",
			wantErr: true,
		},
		{
			name:    "uppercase repository path rejected",
			from:    "ghcr.io/Example/Base",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := Stage{From: tt.from}.ParseFrom()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidSource) {
					t.Fatalf("error = %v, want ErrInvalidSource in chain", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if src.Kind != tt.kind {
				t.Errorf("kind = %d, want %d", src.Kind, tt.kind)
			}
			if src.Value != tt.value {
				t.Errorf("value = %q, want %q", src.Value, tt.value)
			}
		})
	}
}
