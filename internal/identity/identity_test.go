package identity

import (
	"testing"

	"github.com/adelyanov/vigil/internal/telegram"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		user *telegram.User
		want string
	}{
		{"full name", &telegram.User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"first name only", &telegram.User{FirstName: "Ada"}, "Ada"},
		{"username fallback", &telegram.User{Username: "ada_l"}, "@ada_l"},
		{"id fallback", &telegram.User{ID: 1234}, "user 1234"},
		{"nil sender", nil, "unknown sender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Label(tt.user); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}
