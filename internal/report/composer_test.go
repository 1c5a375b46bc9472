package report

import (
	"strings"
	"testing"

	"github.com/adelyanov/vigil/internal/domain"
)

func TestCompose_Idempotent(t *testing.T) {
	r := domain.Report{
		TargetChat:    -100123,
		TargetLink:    "@spam_channel",
		Reason:        "mass unsolicited advertising",
		ReporterLabel: "Ada L.",
	}

	first := Compose(r)
	second := Compose(r)
	if first != second {
		t.Errorf("Compose not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestCompose_RendersAllFields(t *testing.T) {
	r := domain.Report{
		TargetChat:    -100123,
		TargetLink:    "@spam_channel",
		Reason:        "phishing links",
		ReporterLabel: "@watchful_user",
	}

	out := Compose(r)
	for _, want := range []string{"-100123", "@spam_channel", "phishing links", "@watchful_user"} {
		if !strings.Contains(out, want) {
			t.Errorf("Compose output missing %q:\n%s", want, out)
		}
	}
}
