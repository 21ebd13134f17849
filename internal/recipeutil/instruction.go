package recipeutil

import "regexp"

var tempToken = regexp.MustCompile(`\[temp:(-?\d+(?:\.\d+)?):(-?\d+(?:\.\d+)?)\]`)

// FormatInstruction replaces every [temp:<celsius>:<fahrenheit>] token with the
// temperature for the active system. Anything else is left as written.
func FormatInstruction(instruction string, system System) string {
	repl := "${1}°C"
	if system == US {
		repl = "${2}°F"
	}
	return tempToken.ReplaceAllString(instruction, repl)
}

// FormatInstructions formats each step into a new slice.
func FormatInstructions(steps []string, system System) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = FormatInstruction(s, system)
	}
	return out
}
