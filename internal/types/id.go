// README: Identifier type shared by users and groups.
package types

import "strings"

type ID string

// ParseID trims surrounding whitespace; an empty result means "no identity".
func ParseID(s string) ID {
	return ID(strings.TrimSpace(s))
}

func (id ID) Empty() bool {
	return id == ""
}
