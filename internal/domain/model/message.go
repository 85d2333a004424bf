// Package model contains domain models passed between layers.
package model

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

// Known conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn. Timestamp is optional.
type Message struct {
	Role      Role       `json:"role"`
	Content   string     `json:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// WidgetRole maps a role string sent by the chat widget onto a model role.
// The widget labels its own turns "bot". Any other value is kept as given
// so it never counts as a visitor turn.
func WidgetRole(raw string) Role {
	role := strings.ToLower(strings.TrimSpace(raw))
	switch role {
	case "user":
		return RoleUser
	case "bot", "assistant":
		return RoleAssistant
	default:
		return Role(role)
	}
}
