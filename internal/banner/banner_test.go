package banner

import (
	"strings"
	"testing"
)

func TestBannerIncludesVersion(t *testing.T) {
	b := Banner("v1.2.3")
	if !strings.Contains(b, "v1.2.3") {
		t.Errorf("banner missing version:\n%s", b)
	}
	if !strings.HasSuffix(b, "\n\n") {
		t.Error("banner should end with a blank line")
	}
}
