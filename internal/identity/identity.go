// Package identity derives display identities for message senders.
package identity

import (
	"strconv"
	"strings"

	"github.com/adelyanov/vigil/internal/telegram"
)

// Label returns the human-readable reporter label for a sender: full name if
// present, else the @username, else the numeric id. Telegram guarantees none
// of these for every account, so the fallbacks matter.
func Label(u *telegram.User) string {
	if u == nil {
		return "unknown sender"
	}

	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return "user " + strconv.FormatInt(u.ID, 10)
}
