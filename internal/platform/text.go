package platform

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SpecsText renders the board specification block used in prompts.
func (p *Platform) SpecsText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s Board Specifications:\n", p.Name)
	fmt.Fprintf(&b, "- MCU: %s\n", p.MCU)
	if p.IsESPIDF() {
		fmt.Fprintf(&b, "- ESP-IDF Version: %s\n", p.FrameworkVersion)
	} else {
		fmt.Fprintf(&b, "- Arduino Framework Version: %s\n", p.FrameworkVersion)
	}
	fmt.Fprintf(&b, "- Core Voltage: %s\n", p.CoreVoltage)
	fmt.Fprintf(&b, "- Clock Speed: %s\n", p.ClockSpeed)
	fmt.Fprintf(&b, "- RAM: %s\n", p.RAM)
	fmt.Fprintf(&b, "- Flash: %s\n", p.Flash)

	b.WriteString("\nPeripherals:\n")
	for _, per := range p.Peripherals {
		fmt.Fprintf(&b, "- %s: %s (%s)\n", per.Key, per.Description, per.Interface)
	}

	b.WriteString("\nAvailable Interfaces:\n")
	for _, iface := range p.Interfaces {
		fmt.Fprintf(&b, "- %s\n", iface)
	}

	b.WriteString("\nConnectivity Features:\n")
	for _, feat := range p.Connectivity {
		fmt.Fprintf(&b, "- %s\n", feat)
	}

	writeNotes(&b, "Hardware Best Practices", p.BestPractices)
	writeNotes(&b, "Important Header Files", p.Headers)
	writeNotes(&b, "Compile-Time Configuration Notes", p.CompileTime)

	return b.String()
}

func writeNotes(b *strings.Builder, title string, notes []Note) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, n := range notes {
		fmt.Fprintf(b, "- %s: %s\n", n.Name, n.Text)
	}
}

// GPIOReference renders the usage-to-pin table, sorted by usage.
func (p *Platform) GPIOReference() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s GPIO Reference:\n", p.Name)
	for _, usage := range p.GPIOUsages() {
		fmt.Fprintf(&b, "- %s: %s\n", usage, p.GPIOMapping[usage])
	}
	if p.IsESPIDF() {
		b.WriteString("You MUST choose GPIOs exclusively from the list above.\n")
		b.WriteString("Do NOT use any GPIO not explicitly listed here.\n")
	}
	return b.String()
}

// HeaderNames returns the header identifiers without angle brackets.
func (p *Platform) HeaderNames() []string {
	out := make([]string, 0, len(p.Headers))
	for _, h := range p.Headers {
		out = append(out, strings.Trim(h.Name, "<>"))
	}
	return out
}

type specsJSON struct {
	CoreVoltage string `json:"core_voltage"`
	ClockSpeed  string `json:"clock_speed"`
	RAM         string `json:"ram"`
	Flash       string `json:"flash"`
}

type entryJSON struct {
	Platform         string                `json:"platform"`
	Description      string                `json:"description"`
	MCU              string                `json:"mcu"`
	Framework        string                `json:"framework"`
	FrameworkVersion string                `json:"framework_version"`
	Specifications   specsJSON             `json:"specifications"`
	Peripherals      map[string]Peripheral `json:"peripherals"`
	GPIOMapping      map[string]string     `json:"gpio_mapping"`
	Interfaces       []string              `json:"available_interfaces"`
	Connectivity     []string              `json:"connectivity_features"`
	BestPractices    map[string]string     `json:"hardware_best_practices"`
	Headers          map[string]string     `json:"header_files"`
	CompileTime      map[string]string     `json:"compile_time"`
}

func notesMap(notes []Note) map[string]string {
	m := make(map[string]string, len(notes))
	for _, n := range notes {
		m[n.Name] = n.Text
	}
	return m
}

// JSON exports the entry as an indented JSON document.
func (p *Platform) JSON() ([]byte, error) {
	peripherals := make(map[string]Peripheral, len(p.Peripherals))
	for _, per := range p.Peripherals {
		peripherals[per.Key] = per
	}
	doc := entryJSON{
		Platform:         p.Name,
		Description:      p.Description,
		MCU:              p.MCU,
		Framework:        p.Framework,
		FrameworkVersion: p.FrameworkVersion,
		Specifications: specsJSON{
			CoreVoltage: p.CoreVoltage,
			ClockSpeed:  p.ClockSpeed,
			RAM:         p.RAM,
			Flash:       p.Flash,
		},
		Peripherals:   peripherals,
		GPIOMapping:   p.GPIOMapping,
		Interfaces:    p.Interfaces,
		Connectivity:  p.Connectivity,
		BestPractices: notesMap(p.BestPractices),
		Headers:       notesMap(p.Headers),
		CompileTime:   notesMap(p.CompileTime),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// ToolSchema returns a JSON-schema tool descriptor for the entry, suitable for
// handing to a model as structured context.
func (p *Platform) ToolSchema() map[string]any {
	name := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(p.Name))
	str := map[string]any{"type": "string"}
	strMap := func(desc string) map[string]any {
		return map[string]any{"type": "object", "description": desc, "additionalProperties": str}
	}
	return map[string]any{
		"type":        "object",
		"name":        name,
		"description": "Platform specifications and capabilities for " + p.Name,
		"properties": map[string]any{
			"platform_name": map[string]any{"type": "string", "description": "Name of the platform", "const": p.Name},
			"mcu":           map[string]any{"type": "string", "description": "Microcontroller unit details"},
			"specifications": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"core_voltage": str,
					"clock_speed":  str,
					"ram":          str,
					"flash":        str,
				},
			},
			"peripherals": map[string]any{
				"type":        "object",
				"description": "Available peripherals and their specifications",
				"additionalProperties": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        str,
						"description": str,
						"interface":   str,
						"pins":        map[string]any{"type": "object"},
						"notes":       str,
					},
				},
			},
			"gpio_mapping":            map[string]any{"type": "object", "description": "GPIO pin assignments and mappings"},
			"available_interfaces":    map[string]any{"type": "array", "items": str, "description": "Available communication interfaces"},
			"connectivity_features":   map[string]any{"type": "array", "items": str, "description": "Available connectivity features"},
			"hardware_best_practices": strMap("Hardware implementation best practices and guidelines"),
			"header_files":            strMap("Important header files and their purposes"),
			"compile_time":            strMap("Compile-time configuration notes"),
		},
	}
}
