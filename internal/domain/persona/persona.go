// Package persona turns a question into a prompt for a historical
// economist and tracks the per-session answer and error slots.
package persona

import "fmt"

// Slots is the number of persona columns in a session.
const Slots = 2

// User visible messages.
const (
	MsgEmptyQuestion = "Please enter a question"
	MsgRateLimited   = "Please wait a few seconds before asking another question."
	MsgCompletion    = "Completion API error: %v"
)

var labels = []string{
	"Adam Smith (1723-1790)",
	"David Ricardo (1772-1823)",
	"John Maynard Keynes (1883-1946)",
	"Milton Friedman (1912-2006)",
}

// Personas returns the selectable economist labels in display order.
func Personas() []string {
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// Known reports whether label is one of the selectable personas.
func Known(label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

// Prompt builds the completion prompt for a persona.
func Prompt(persona, question string) string {
	return fmt.Sprintf("What would %s have said about the following question: %s", persona, question)
}
