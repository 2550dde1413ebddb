package prescription

import "strings"

// ValidDraft reports whether a draft is submittable: at least one medication,
// every medication fully populated, and non-empty instructions, all after
// trimming. Pure and cheap enough to call on every keystroke.
func ValidDraft(d Draft) bool {
	if len(d.Medications) == 0 {
		return false
	}
	for _, m := range d.Medications {
		if strings.TrimSpace(m.Name) == "" ||
			strings.TrimSpace(m.Dosage) == "" ||
			strings.TrimSpace(m.Frequency) == "" ||
			strings.TrimSpace(m.Duration) == "" {
			return false
		}
	}
	return strings.TrimSpace(d.Instructions) != ""
}
