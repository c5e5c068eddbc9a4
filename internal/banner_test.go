package internal

import (
	"strings"
	"testing"
)

func TestBannerString(t *testing.T) {
	if s := BannerString(); !strings.Contains(s, "1.16.5 (754)") {
		t.Fatalf("expected the protocol version in the banner, got %q", s)
	}
}
