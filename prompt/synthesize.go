// Package prompt renders the behavioral contract sent to an LLM as the
// system prompt for a persona.
package prompt

import (
	"fmt"
	"strings"

	"github.com/BaSui01/boardroom/types"
)

// DefaultExpertise is the fallback rendered when a persona declares no
// expertise tags.
const DefaultExpertise = "general knowledge"

// Synthesize maps a persona to its system prompt. It is pure and total: the
// same persona always yields the same text and no input fails.
//
// An explicit SystemPrompt on the persona always wins, returned unchanged.
func Synthesize(p types.Persona) string {
	if p.SystemPrompt != "" {
		return p.SystemPrompt
	}

	expertise := DefaultExpertise
	if len(p.Expertise) > 0 {
		expertise = strings.Join(p.Expertise, ", ")
	}

	return fmt.Sprintf(`You are %s, a %s AI Employee.

Personality: %s

Your area of expertise includes: %s.

Instructions:
- Stay in character as %s.
- Be helpful, professional, and embody your personality.
- Keep responses concise and relevant to the conversation. (1-3 sentences unless more detail is requested)
- In meetings, collaborate effectively with other AI employees.
- If asked about something outside your expertise, acknowledge it and suggest consulting another employee or resource.
- If you don't know the answer, it's okay to say so.
- Don't label your messages with your name or role; just respond naturally.
`, p.Name, p.Role, p.Personality, expertise, p.Name)
}

// Backstory renders the short framing used for inter-agent collaboration
// context. It is deliberately not the full system prompt.
func Backstory(p types.Persona) string {
	expertise := DefaultExpertise
	if len(p.Expertise) > 0 {
		expertise = strings.Join(p.Expertise, ", ")
	}
	return fmt.Sprintf("personality: %s\nexpertise: %s\n", p.Personality, expertise)
}
