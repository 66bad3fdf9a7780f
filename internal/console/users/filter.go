// Package users holds the console's user management logic that does not
// talk to the network: list filtering and form validation.
package users

import (
	"strings"

	"github.com/aussiebroadwan/console/pkg/consolesdk"
)

// Filter returns the accounts whose name or email contains term, ignoring
// case, in their original order. An empty term returns the list unchanged.
func Filter(list []consolesdk.UserAccount, term string) []consolesdk.UserAccount {
	if term == "" {
		return list
	}

	needle := strings.ToLower(term)
	out := make([]consolesdk.UserAccount, 0, len(list))
	for _, u := range list {
		if strings.Contains(strings.ToLower(u.Name), needle) ||
			strings.Contains(strings.ToLower(u.Email), needle) {
			out = append(out, u)
		}
	}
	return out
}
