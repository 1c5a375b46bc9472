// Package report renders completed complaint workflows into the text that is
// delivered to the moderation chat.
package report

import (
	"fmt"
	"strings"

	"github.com/adelyanov/vigil/internal/domain"
)

// Compose renders a report into its delivery text. Pure: the same Report
// value always yields byte-identical output.
func Compose(r domain.Report) string {
	var b strings.Builder
	b.WriteString("New complaint\n")
	fmt.Fprintf(&b, "Chat: %d\n", r.TargetChat)
	fmt.Fprintf(&b, "Target: %s\n", r.TargetLink)
	fmt.Fprintf(&b, "Reason: %s\n", r.Reason)
	fmt.Fprintf(&b, "Reported by: %s", r.ReporterLabel)
	return b.String()
}
