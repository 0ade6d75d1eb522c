// Package contact validates portfolio contact-form submissions and relays
// them by email.
package contact

import (
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// Field limits.
const (
	MaxNameLen    = 100
	MaxMessageLen = 5000
)

// Submission is a contact form post. Honeypot and ClientTimestamp are
// optional anti-spam fields filled in by the form.
type Submission struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Message         string `json:"message"`
	Honeypot        string `json:"hp,omitempty"`
	ClientTimestamp int64  `json:"ts,omitempty"` // Unix milliseconds
}

// Validate checks field constraints and returns a *ValidationError listing
// every violation.
func (s Submission) Validate() error {
	var errs []FieldError

	switch n := utf8.RuneCountInString(s.Name); {
	case n == 0:
		errs = append(errs, FieldError{Field: "name", Message: "is required"})
	case n > MaxNameLen:
		errs = append(errs, FieldError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLen)})
	}

	if !validEmail(s.Email) {
		errs = append(errs, FieldError{Field: "email", Message: "must be a valid email address"})
	}

	switch n := utf8.RuneCountInString(s.Message); {
	case n == 0:
		errs = append(errs, FieldError{Field: "message", Message: "is required"})
	case n > MaxMessageLen:
		errs = append(errs, FieldError{Field: "message", Message: fmt.Sprintf("must be at most %d characters", MaxMessageLen)})
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Screen applies the anti-spam checks. A zero timestamp is not checked.
func (s Submission) Screen(now time.Time, maxSkew time.Duration) error {
	if strings.TrimSpace(s.Honeypot) != "" {
		return ErrSpam
	}
	if s.ClientTimestamp == 0 || maxSkew <= 0 {
		return nil
	}
	skew := now.Sub(time.UnixMilli(s.ClientTimestamp))
	if skew < 0 {
		skew = -skew
	}
	if skew > maxSkew {
		return ErrExpired
	}
	return nil
}

// validEmail accepts a bare address only, no display name.
func validEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndex(s, "@")
	return at > 0 && strings.Contains(s[at+1:], ".")
}

// Email is an outgoing message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Subject returns the notification subject for a submission.
func Subject(s Submission) string {
	return "Portfolio Contact: " + s.Name
}

// RenderHTML renders the notification body. User input is escaped and
// message line breaks become <br>.
func RenderHTML(s Submission) string {
	msg := html.EscapeString(s.Message)
	msg = strings.ReplaceAll(msg, "\r\n", "\n")
	msg = strings.ReplaceAll(msg, "\n", "<br>")

	var b strings.Builder
	b.WriteString("<h2>New Contact Form Submission</h2>\n")
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", html.EscapeString(s.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", html.EscapeString(s.Email))
	b.WriteString("<p><strong>Message:</strong></p>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n", msg)
	b.WriteString("<hr>\n<p><em>Sent from your portfolio contact form</em></p>\n")
	return b.String()
}
