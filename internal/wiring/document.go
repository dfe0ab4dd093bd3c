package wiring

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/metalagman/firmgen/internal/platform"
)

// FormatStructured tags the JSON wiring document.
const FormatStructured = "wiring_diagram_structured"

//go:embed schema.json
var documentSchema string

// Metadata identifies the project a wiring document belongs to.
type Metadata struct {
	Project  string `json:"project"`
	Platform string `json:"platform"`
}

// Document is the machine-readable wiring description saved as WIRING.json.
type Document struct {
	Format      string                `json:"format"`
	Metadata    Metadata              `json:"metadata"`
	Components  []Component           `json:"components"`
	Connections []Connection          `json:"connections"`
	PinMappings map[string]PinMapping `json:"pin_mappings"`
	RawDiagram  string                `json:"raw_diagram"`
}

// NewDocument parses text and wraps the result with metadata. The platform
// from metadata seeds the parse unless opts names one explicitly.
func NewDocument(text string, meta Metadata, opts Options) Document {
	if opts.Platform == "" {
		opts.Platform = meta.Platform
	}
	d := Parse(text, opts)
	return Document{
		Format:      FormatStructured,
		Metadata:    meta,
		Components:  d.Components,
		Connections: d.Connections,
		PinMappings: d.PinMappings,
		RawDiagram:  text,
	}
}

// RenderJSON serialises doc and checks it against the document schema.
func RenderJSON(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal wiring document: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(documentSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate wiring document: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		sort.Strings(errs)
		return nil, fmt.Errorf("wiring document invalid: %s", strings.Join(errs, "; "))
	}
	return append(data, '\n'), nil
}

const markdownTemplate = "# Wiring Diagram & Instructions\n\n" +
	"## Connection Diagram\n\n" +
	"```\n%s\n```\n\n" +
	"## Additional Information & Setup\n\n" +
	"%s\n\n" +
	"## Guidelines\n\n" +
	"1. **Power**: Ensure proper power supply before connecting components\n" +
	"2. **GPIO Safety**: Verify all GPIO pins are within safe voltage ranges (3.3V)\n" +
	"3. **I2C/SPI**: Double-check clock and data line connections\n" +
	"4. **Audio**: Ensure proper impedance matching for speaker connections\n" +
	"5. **Display**: Verify SPI connections and ensure proper CS/DC control\n\n" +
	"## Quick Reference\n\n" +
	"- Review pin assignments before soldering\n" +
	"- Use pull-up/pull-down resistors as needed per component datasheets\n" +
	"- Test connections with multimeter before power-on\n" +
	"- Refer to board pinout documentation for exact locations\n"

// RenderMarkdown renders WIRING.md.
func RenderMarkdown(text, info string) string {
	return fmt.Sprintf(markdownTemplate, text, info)
}

// RenderMermaid renders a flowchart of the parsed connections. Without any
// connections it falls back to an overview of the board's buses.
func RenderMermaid(doc Document) string {
	board := boardName(doc.Metadata.Platform)
	var b strings.Builder
	b.WriteString("graph TB\n")
	fmt.Fprintf(&b, "    subgraph board[%s]\n", quote(board))
	b.WriteString("        MCU[\"MCU\"]\n")
	b.WriteString("    end\n")

	if len(doc.Connections) == 0 {
		b.WriteString("    subgraph buses[\"Connections\"]\n")
		b.WriteString("        GPIO[\"GPIO Pins\"]\n")
		b.WriteString("        I2C[\"I2C Bus\"]\n")
		b.WriteString("        SPI[\"SPI Bus\"]\n")
		b.WriteString("        I2S[\"I2S Audio\"]\n")
		b.WriteString("    end\n")
		for _, bus := range []string{"GPIO", "I2C", "SPI", "I2S"} {
			fmt.Fprintf(&b, "    MCU --> %s\n", bus)
		}
		return b.String()
	}

	ids := map[string]string{}
	node := func(name string) string {
		if id, ok := ids[name]; ok {
			return id
		}
		id := fmt.Sprintf("n%d", len(ids)+1)
		ids[name] = id
		fmt.Fprintf(&b, "    %s[%s]\n", id, quote(name))
		return id
	}
	for _, c := range doc.Connections {
		from, to := node(c.From), node(c.To)
		if c.Pin != "" {
			fmt.Fprintf(&b, "    %s -->|%s| %s\n", from, quote(c.Pin), to)
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
		}
	}
	return b.String()
}

func boardName(id string) string {
	if id == "" {
		return "Board"
	}
	if p, err := platform.Lookup(id); err == nil {
		return p.Name
	}
	return id
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, "#quot;") + `"`
}
