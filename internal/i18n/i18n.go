// Package i18n holds the user-facing strings. Spanish is the default
// voice of the app; English is available via the language setting.
package i18n

const (
	LangSpanish = "es"
	LangEnglish = "en"
)

const (
	MsgCompletionTitle = "completion_title"
	MsgCompletionBody  = "completion_body"
	MsgEncouragement   = "encouragement"
	MsgRewardPrompt    = "reward_prompt"
)

var messages = map[string]map[string]string{
	LangSpanish: {
		MsgCompletionTitle: "¡Enfoque!",
		MsgCompletionBody:  "¡Sesión completada! Tómate un descanso.",
		MsgEncouragement:   "¡Buen trabajo! Tómate un momento para ti.",
		MsgRewardPrompt:    "Tu actividad de descanso:",
	},
	LangEnglish: {
		MsgCompletionTitle: "Enfoque!",
		MsgCompletionBody:  "Session complete! Take a break.",
		MsgEncouragement:   "Nice work! Take a moment for yourself.",
		MsgRewardPrompt:    "Your break activity:",
	},
}

// Valid reports whether lang is a supported language code.
func Valid(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// T looks a message up, falling back to Spanish for unknown languages and
// to the key itself for unknown messages.
func T(lang, key string) string {
	table, ok := messages[lang]
	if !ok {
		table = messages[LangSpanish]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	return key
}
