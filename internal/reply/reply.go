// Package reply generates canned support responses for the chat's support
// role. Replies stay supportive and non-medical, and encourage
// professional care where appropriate.
package reply

import "strings"

// BuildSupportReply returns the support response for a user message.
func BuildSupportReply(userText string) string {
	text := strings.ToLower(userText)

	if strings.Contains(text, "hot flash") || strings.Contains(text, "hot flashes") {
		return "That sounds really uncomfortable. Hot flashes can be exhausting. If you want, you can log when they happen (time, intensity, triggers like caffeine/alcohol/stress) and we can look for patterns. If symptoms feel severe or are changing quickly, consider checking in with a clinician."
	}

	if strings.Contains(text, "sleep") || strings.Contains(text, "insomnia") || strings.Contains(text, "tired") {
		return "Sleep disruption is very common around perimenopause/menopause. If you'd like, tell me what your nights look like (bedtime, wake-ups, night sweats, stress level) and we can brainstorm gentle routines to try. If you're feeling unsafe, extremely depressed, or unable to function, it's important to seek professional support."
	}

	if strings.Contains(text, "anx") || strings.Contains(text, "panic") ||
		strings.Contains(text, "mood") || strings.Contains(text, "depress") {
		return "I'm here with you. Mood changes can feel intense and isolating. If you can, share what you're noticing (when it started, what helps, what makes it worse). If you're thinking about harming yourself or feel in danger, please call local emergency services right now."
	}

	if strings.Contains(text, "help") || strings.Contains(text, "support") {
		return "I'm here to support you. What's the biggest thing you want help with today: symptoms, sleep, stress, or tracking what you're experiencing?"
	}

	return "Thanks for sharing that. I'm here with you. If you tell me a bit more about what you're experiencing (what, when it started, how often, how intense), I can help you organize it for your symptom log and suggest questions to bring to a clinician."
}
