// Package prompt builds generation prompts from catalog data, the design text
// and feature reference snippets.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/metalagman/firmgen/internal/features"
	"github.com/metalagman/firmgen/internal/platform"
)

//go:embed prompts
var promptFS embed.FS

var prompts = template.Must(template.ParseFS(promptFS, "prompts/*.gotmpl"))

// snippet files by framework and capability tag.
var snippetFiles = map[string]map[string]string{
	platform.FrameworkESPIDF: {
		features.Display: "display_espidf.c",
	},
	platform.FrameworkArduino: {
		features.Timer:   "timer.ino",
		features.DHT11:   "dht11.ino",
		features.MPU6050: "mpu6050.ino",
	},
}

type codeData struct {
	Platform *platform.Platform
	Design   string
	Headers  []platform.Note
	Features features.Set
	Snippets map[string]string
}

// Code renders the framework-specific code-generation prompt.
func Code(p *platform.Platform, design string, tags features.Set) (string, error) {
	if tags == nil {
		tags = features.Set{}
	}
	data := codeData{
		Platform: p,
		Design:   design,
		Headers:  projectHeaders(p),
		Features: tags,
		Snippets: map[string]string{},
	}
	for tag, file := range snippetFiles[p.Framework] {
		if !tags.Has(tag) {
			continue
		}
		body, err := promptFS.ReadFile("prompts/snippets/" + file)
		if err != nil {
			return "", fmt.Errorf("read snippet %s: %w", file, err)
		}
		data.Snippets[tag] = strings.TrimSpace(string(body))
	}

	name := "code_arduino.gotmpl"
	if p.IsESPIDF() {
		name = "code_espidf.gotmpl"
	}
	return execute(name, data)
}

// Diagram renders the wiring-diagram prompt.
func Diagram(p *platform.Platform, design string) (string, error) {
	return execute("diagram.gotmpl", codeData{Platform: p, Design: design})
}

// AgentSystem renders the system prompt of the skill agent. metadata is the
// level-1 skill listing.
func AgentSystem(framework, metadata string) string {
	out, err := execute("agent_system.gotmpl", struct {
		Framework string
		Metadata  string
	}{framework, metadata})
	if err != nil {
		// the template is static and takes only strings
		panic(err)
	}
	return out
}

// FrameworkLabel is the human name of a catalog framework.
func FrameworkLabel(framework string) string {
	if framework == platform.FrameworkESPIDF {
		return "ESP-IDF"
	}
	return "Arduino"
}

func projectHeaders(p *platform.Platform) []platform.Note {
	var out []platform.Note
	for _, h := range p.Headers {
		if !strings.HasPrefix(h.Name, "<") {
			out = append(out, h)
		}
	}
	return out
}

func execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
