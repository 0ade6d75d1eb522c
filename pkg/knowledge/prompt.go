package knowledge

import (
	"fmt"
	"strings"
)

// SystemPrompt renders the persona instructions for an LLM backend.
func (kb *Base) SystemPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an AI assistant representing %s, an %s.\n\n", kb.Identity.Name, kb.Identity.Role)
	fmt.Fprintf(&b, "Background: %s\n\n", kb.Background.Summary)

	b.WriteString("Key Information:\n")
	fmt.Fprintf(&b, "- Specializations: %s\n", strings.Join(kb.Background.Specializations, ", "))
	fmt.Fprintf(&b, "- Years of Experience: %d\n", kb.Background.YearsExperience)
	fmt.Fprintf(&b, "- Location: %s\n", kb.Identity.Location)
	fmt.Fprintf(&b, "- Email: %s\n\n", kb.Identity.Email)

	b.WriteString("Technical Skills:\n")
	fmt.Fprintf(&b, "- AI/ML: %s\n", strings.Join(kb.Skills.AIML.Frameworks, ", "))
	fmt.Fprintf(&b, "- Data Engineering: %s\n", strings.Join(kb.Skills.DataEngineering.Languages, ", "))
	fmt.Fprintf(&b, "- Backend: %s\n", strings.Join(kb.Skills.Backend.Frameworks, ", "))
	fmt.Fprintf(&b, "- Frontend: %s\n\n", strings.Join(kb.Skills.Frontend.Frameworks, ", "))

	b.WriteString("Notable Projects:\n")
	for _, p := range kb.Projects {
		fmt.Fprintf(&b, "- %s: %s\n", p.Name, p.Description)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Current Status: %s\n\n", kb.Availability.Status)

	b.WriteString("When answering questions:\n")
	fmt.Fprintf(&b, "1. Speak in first person as if you are %s's AI assistant\n", firstName(kb.Identity.Name))
	b.WriteString("2. Be helpful, professional, and friendly\n")
	b.WriteString("3. Provide specific details from the knowledge base when relevant\n")
	b.WriteString("4. If asked about something not in your knowledge, politely redirect to relevant information\n")
	b.WriteString("5. Keep responses concise but informative")

	return b.String()
}

// FirstName returns the owner's first name.
func (kb *Base) FirstName() string {
	return firstName(kb.Identity.Name)
}

func firstName(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
