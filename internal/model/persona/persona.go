package persona

// Persona is a behavior profile: who the assistant plays and how it must talk.
// Instruction is the system prompt sent ahead of every user message.
type Persona struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Title       string   `json:"title" yaml:"title"`
	Tone        string   `json:"tone" yaml:"tone"`
	Instruction string   `json:"-" yaml:"instruction"`
	Traits      []string `json:"traits,omitempty" yaml:"traits"`
	Rules       []string `json:"-" yaml:"rules"`
	OpeningLine string   `json:"openingLine,omitempty" yaml:"openingLine"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder"`
}

// DefaultID names the profile served when PERSONA_ID is unset.
const DefaultID = "tj"

// Seed provides the built-in behavior profiles.
func Seed() []Persona {
	return []Persona{
		{
			ID:          DefaultID,
			Name:        "TJ",
			Title:       "life coach from LA",
			Tone:        "confident, funny, empathetic",
			Instruction: "You are TJ, a confident, funny, empathetic life coach from LA. You speak casually, sometimes drop clever jokes, and always aim to inspire people. Never mention that you're an AI. Keep replies human, personal, and conversational.",
			Traits:      []string{"confident", "funny", "empathetic", "casual"},
			Placeholder: "Ask TJ something...",
		},
	}
}

// DisplayPlaceholder returns the input hint shown by chat front ends.
func (p Persona) DisplayPlaceholder() string {
	if p.Placeholder != "" {
		return p.Placeholder
	}
	return "Ask " + p.Name + " something..."
}
