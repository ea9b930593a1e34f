package runtime

import (
	"strings"
	"testing"
)

func TestArchiveTag(t *testing.T) {
	tag := archiveTag("/tmp/out/image.tar")

	if !strings.HasPrefix(tag, "import/") {
		t.Errorf("archiveTag = %q, want import/ prefix", tag)
	}
	if !strings.HasSuffix(tag, ":latest") {
		t.Errorf("archiveTag = %q, want :latest suffix", tag)
	}
	if tag != archiveTag("/tmp/out/image.tar") {
		t.Error("archiveTag is not deterministic for the same path")
	}
	if tag == archiveTag("/tmp/other/image.tar") {
		t.Error("archiveTag collides for different paths")
	}
}

func TestDefaultPlatform(t *testing.T) {
	p := defaultPlatform()
	if !strings.HasPrefix(p, "linux/") {
		t.Errorf("defaultPlatform = %q, want linux/ prefix", p)
	}
}
