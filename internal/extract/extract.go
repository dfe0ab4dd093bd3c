// Package extract isolates source code and named sections from model responses.
package extract

import (
	"regexp"
	"strings"
)

const fence = "```"

// fenceLangs are the language tags accepted on an opening fence.
var fenceLangs = map[string]bool{
	"":        true,
	"c":       true,
	"cpp":     true,
	"c++":     true,
	"arduino": true,
	"ino":     true,
}

// stopMarkers end the code when found (upper-cased) anywhere in a line.
var stopMarkers = []string{
	"**WIRING DIAGRAM**",
	"**CONNECTION",
	"=== WIRING",
}

// Code returns the source code contained in a raw model response.
// It never fails; input without recognisable structure comes back trimmed.
func Code(raw string) string {
	code := strings.TrimSpace(raw)

	if first, rest, _ := strings.Cut(code, "\n"); strings.HasPrefix(first, fence) {
		tag := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(first, fence)))
		if fenceLangs[tag] {
			code = strings.TrimSpace(rest)
		}
	}
	if strings.HasSuffix(code, fence) {
		code = strings.TrimSpace(strings.TrimSuffix(code, fence))
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		if isStopLine(line) {
			lines = lines[:i]
			break
		}
	}
	code = strings.TrimSpace(strings.Join(lines, "\n"))

	if last := strings.LastIndex(code, "}"); last >= 0 {
		if !onlyComments(code[last+1:]) {
			code = strings.TrimSpace(code[:last+1])
		}
	}
	return code
}

func isStopLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, m := range stopMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return strings.HasPrefix(strings.TrimSpace(line), "# ") && strings.Contains(strings.ToLower(line), "wiring")
}

// onlyComments reports whether tail holds nothing but whitespace and C comments.
func onlyComments(tail string) bool {
	inBlock := false
	for _, line := range strings.Split(tail, "\n") {
		s := strings.TrimSpace(line)
		switch {
		case s == "":
		case inBlock:
			if strings.Contains(s, "*/") {
				inBlock = false
			}
		case strings.HasPrefix(s, "//"):
		case strings.HasPrefix(s, "/*"):
			inBlock = !strings.Contains(s, "*/")
		default:
			return false
		}
	}
	return true
}

var fencedBlock = regexp.MustCompile("(?s)```(?:cpp|c\\+\\+|c|arduino|ino)?[ \t]*\n(.*?)```")

// LastFencedBlock returns the body of the last fenced code block in raw.
func LastFencedBlock(raw string) (string, bool) {
	matches := fencedBlock.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.TrimSpace(matches[len(matches)-1][1]), true
}
