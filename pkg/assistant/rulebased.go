package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/teslashibe/go-folio/pkg/knowledge"
)

// RuleBasedLabel is reported as the model name for keyword replies.
const RuleBasedLabel = "Rule-based (Configure API for better responses)"

// RuleBased implements Client with keyword routing over the knowledge base.
// It never fails, which makes it the last link of a chain.
type RuleBased struct {
	kb *knowledge.Base
}

// NewRuleBased creates a rule-based responder. A nil base uses the default.
func NewRuleBased(kb *knowledge.Base) *RuleBased {
	if kb == nil {
		kb = knowledge.Default()
	}
	return &RuleBased{kb: kb}
}

// Name implements Named.
func (r *RuleBased) Name() string {
	return RuleBasedLabel
}

// Reply implements Client.
func (r *RuleBased) Reply(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return r.Respond(req.Message), nil
}

// Respond picks a canned answer for message.
func (r *RuleBased) Respond(message string) string {
	kb := r.kb
	msg := strings.ToLower(message)
	name := kb.FirstName()
	specs := kb.Background.Specializations

	switch {
	case containsAny(msg, "experience", "background"):
		return fmt.Sprintf("%s I have %d years of experience specializing in %s.",
			kb.Background.Summary, kb.Background.YearsExperience, join(head(specs, 3)))

	case containsAny(msg, "skill", "tech"):
		skills := append(head(kb.Skills.AIML.Frameworks, 3), head(kb.Skills.Backend.Frameworks, 2)...)
		return fmt.Sprintf("%s's core technical skills include %s. He specializes in %s and %s.",
			name, join(skills), at(specs, 0), at(specs, 1))

	case containsAny(msg, "project"):
		if len(kb.Projects) == 0 {
			return fmt.Sprintf("Check out the Projects section to see what %s has been building!", name)
		}
		p := kb.Projects[0]
		return fmt.Sprintf("One of %s's notable projects is the %s, %s. Key achievements include: %s.",
			name, p.Name, p.Description, join(head(p.Achievements, 2)))

	case containsAny(msg, "contact", "hire", "available"):
		return fmt.Sprintf("%s is %s! You can reach him at %s or schedule a meeting at %s. He's interested in %s.",
			name, strings.ToLower(kb.Availability.Status), kb.Identity.Email, kb.Links.Calendly,
			join(head(kb.Availability.Preferences, 3)))

	case containsAny(msg, "ai", "ml", "machine learning"):
		return fmt.Sprintf("%s has extensive experience in AI/ML, particularly with %s. His expertise includes %s.",
			name, join(head(kb.Skills.AIML.Frameworks, 3)), join(head(kb.Skills.AIML.Expertise, 3)))
	}

	return fmt.Sprintf("That's a great question! %s is an %s with expertise in %s. "+
		"Feel free to ask about his specific projects, technical skills, or professional experience. "+
		"You can also check out the Projects section or contact him directly!",
		name, kb.Identity.Role, at(specs, 0))
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func head(s []string, n int) []string {
	if len(s) < n {
		n = len(s)
	}
	return append([]string(nil), s[:n]...)
}

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func join(s []string) string {
	return strings.Join(s, ", ")
}

// Verify RuleBased implements Client at compile time.
var _ Client = (*RuleBased)(nil)
