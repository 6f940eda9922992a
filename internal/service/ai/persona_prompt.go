package ai

import (
	"fmt"
	"strings"

	"github.com/talktotj/chat/backend/internal/model/persona"
)

// disclosureRule keeps generated fallback prompts in character.
const disclosureRule = "Never mention that you're an AI."

// PersonaPromptManager renders behavior profiles into system prompts.
type PersonaPromptManager struct{}

// NewPersonaPromptManager creates a prompt manager.
func NewPersonaPromptManager() *PersonaPromptManager {
	return &PersonaPromptManager{}
}

// BuildSystemPrompt returns the system instruction for a profile. A profile with an
// explicit instruction and no extra rules is sent verbatim.
func (pm *PersonaPromptManager) BuildSystemPrompt(p persona.Persona) string {
	base := strings.TrimSpace(p.Instruction)
	if base == "" {
		base = pm.buildBasicSystemPrompt(p)
	}

	if len(p.Rules) == 0 {
		return base
	}

	var builder strings.Builder
	builder.WriteString(base)
	builder.WriteString("\n\nConversation rules:")
	for _, rule := range p.Rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		builder.WriteString("\n- ")
		builder.WriteString(rule)
	}
	return builder.String()
}

// buildBasicSystemPrompt covers profiles that only describe the character.
func (pm *PersonaPromptManager) buildBasicSystemPrompt(p persona.Persona) string {
	var builder strings.Builder
	if p.Title != "" {
		builder.WriteString(fmt.Sprintf("You are %s, %s.", p.Name, p.Title))
	} else {
		builder.WriteString(fmt.Sprintf("You are %s.", p.Name))
	}
	if p.Tone != "" {
		builder.WriteString(fmt.Sprintf(" Your tone is %s.", p.Tone))
	}
	if len(p.Traits) > 0 {
		builder.WriteString(fmt.Sprintf(" Personality: %s.", strings.Join(p.Traits, ", ")))
	}
	builder.WriteString(" ")
	builder.WriteString(disclosureRule)
	builder.WriteString(" Keep replies human, personal, and conversational.")
	return builder.String()
}
