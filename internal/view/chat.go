package view

import (
	"fmt"
	"time"

	"bookbank/internal/lending"
)

// FormatChatLine renders "sender: message (HH:MM)" with a 24-hour clock in loc.
func FormatChatLine(m lending.ChatMessage, loc *time.Location) string {
	clock := "--:--"
	if !m.CreatedAt.IsZero() {
		clock = m.CreatedAt.In(loc).Format("15:04")
	}
	return fmt.Sprintf("%s: %s (%s)", m.Sender, m.Message, clock)
}

// RenderChat renders messages in the order given.
func RenderChat(messages []lending.ChatMessage, loc *time.Location) []string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, FormatChatLine(m, loc))
	}
	return lines
}
