package streamrec

import "strings"

// MessageSuffix is appended to a source name to name its message table.
const MessageSuffix = "_msgs"

type nodeRole int

const (
	roleData nodeRole = iota
	roleMessages
)

func (r nodeRole) String() string {
	if r == roleMessages {
		return "messages"
	}
	return "data"
}

// MessageTableName returns the name of the message table paired with source.
func MessageTableName(source string) string {
	return source + MessageSuffix
}

// classifyName decides by name alone whether a node is a data node or the
// message table of base. A bare "_msgs" has no base and counts as data.
func classifyName(name string) (role nodeRole, base string) {
	if base, ok := strings.CutSuffix(name, MessageSuffix); ok && base != "" {
		return roleMessages, base
	}
	return roleData, name
}

// validateSourceName rejects names that would be misread on reopen.
func validateSourceName(name string) error {
	if name == "" {
		return ErrReservedName
	}
	if role, _ := classifyName(name); role == roleMessages {
		return ErrReservedName
	}
	return nil
}
