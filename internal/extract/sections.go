package extract

import "strings"

// Section names produced by the diagram prompt.
const (
	SectionWiringDiagram  = "wiring_diagram"
	SectionAdditionalInfo = "additional_info"
)

// Sections splits a response into "=== NAME ===" delimited sections keyed by
// the lower-cased, underscore-joined name. Fence lines are dropped and blank
// lines inside a section are kept.
func Sections(raw string) map[string]string {
	sections := map[string]string{}
	var (
		current string
		open    bool
		body    []string
	)
	flush := func() {
		if open {
			sections[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}

	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if name, ok := sectionHeader(line); ok {
			flush()
			current, open, body = name, true, nil
			continue
		}
		if !open || strings.HasPrefix(strings.TrimSpace(line), fence) {
			continue
		}
		body = append(body, line)
	}
	flush()
	return sections
}

func sectionHeader(line string) (string, bool) {
	if !strings.Contains(line, "=== ") || !strings.Contains(line, " ===") {
		return "", false
	}
	start := strings.Index(line, "===") + 3
	end := strings.LastIndex(line, "===")
	if end < start {
		return "", false
	}
	name := strings.ToLower(strings.TrimSpace(line[start:end]))
	return strings.ReplaceAll(name, " ", "_"), true
}

// Diagram returns the wiring diagram and additional info sections of a diagram response.
func Diagram(raw string) (wiring, info string) {
	s := Sections(raw)
	return s[SectionWiringDiagram], s[SectionAdditionalInfo]
}
