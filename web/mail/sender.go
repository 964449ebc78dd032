// Package mail delivers contact-form notifications to the site owner.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
)

// ErrNotConfigured is returned when a channel lacks the credentials it needs.
var ErrNotConfigured = errors.New("mail: sender is not configured")

const Subject = "New Contact Added."

// ContactMessage is what a visitor submits on the contact page.
type ContactMessage struct {
	Name    string
	Email   string
	Phone   string
	Message string
}

// Sender delivers a contact message. One attempt is made; failures are returned.
type Sender interface {
	Send(ctx context.Context, msg ContactMessage) error
	// Channel names the transport for logs and metrics.
	Channel() string
}

// HTMLBody renders msg as the notification body with every field escaped.
func HTMLBody(msg ContactMessage) string {
	var b strings.Builder
	b.WriteString("<html>\n<body>\n")
	fmt.Fprintf(&b, "<h3>Name: %s</h3>\n", html.EscapeString(msg.Name))
	fmt.Fprintf(&b, "<h3>Email: %s</h3>\n", html.EscapeString(msg.Email))
	fmt.Fprintf(&b, "<h3>Phone: %s</h3>\n", html.EscapeString(msg.Phone))
	fmt.Fprintf(&b, "<h3>Message: %s</h3>\n", html.EscapeString(msg.Message))
	b.WriteString("</body>\n</html>\n")
	return b.String()
}
