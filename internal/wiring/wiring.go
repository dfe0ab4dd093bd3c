// Package wiring turns free-form wiring text into a structured description
// and renders it into the documentation formats shipped with a project.
package wiring

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/metalagman/firmgen/internal/platform"
)

// Component types.
const (
	TypeHardware = "hardware"
	TypePin      = "pin"
	TypePower    = "power"
)

// Component is a part that takes part in the wiring.
type Component struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Connection is a single wire between two components.
type Connection struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Pin         string `json:"pin"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// PinMapping records what a board pin is used for.
type PinMapping struct {
	Function    string `json:"function"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Description is the structured result of Parse.
type Description struct {
	Components  []Component           `json:"components"`
	Connections []Connection          `json:"connections"`
	PinMappings map[string]PinMapping `json:"pin_mappings"`
}

// Options tune Parse.
type Options struct {
	// Platform seeds components and pin mappings from the catalog when it resolves.
	Platform string
	// LegacyFallback appends the canned LED demo wiring when its keywords appear.
	LegacyFallback bool
	// Dedup drops exact duplicate connections, keeping the first.
	Dedup bool
}

// Parse extracts components, connections and pin mappings from text. It never fails.
func Parse(text string, opts Options) Description {
	d := Description{
		Components:  []Component{},
		Connections: []Connection{},
		PinMappings: map[string]PinMapping{},
	}
	seen := map[string]bool{}
	addComponent := func(c Component) {
		if seen[c.Name] {
			return
		}
		seen[c.Name] = true
		d.Components = append(d.Components, c)
	}

	if opts.Platform != "" {
		if p, err := platform.Lookup(opts.Platform); err == nil {
			seed(p, addComponent, d.PinMappings)
		}
	}

	lines := strings.Split(text, "\n")
	d.Connections = append(d.Connections, scanTables(lines)...)
	d.Connections = append(d.Connections, scanProse(lines)...)

	if opts.LegacyFallback && legacyTriggered(text) {
		for _, c := range legacyComponents {
			addComponent(c)
		}
		d.Connections = append(d.Connections, legacyConnections...)
		d.PinMappings[legacyPin] = legacyPinMapping
	}

	if opts.Dedup {
		d.Connections = dedup(d.Connections)
	}
	return d
}

func seed(p *platform.Platform, add func(Component), pins map[string]PinMapping) {
	add(Component{Name: p.Name, Type: TypeHardware, Description: p.Description})
	for _, usage := range p.GPIOUsages() {
		value := p.GPIOMapping[usage]
		typ := TypeHardware
		if isPinValue(value) || strings.Contains(usage, "Bread") {
			typ = TypePin
		}
		add(Component{Name: usage, Type: typ, Description: fmt.Sprintf("%s on %s", value, p.Name)})

		switch {
		case isPinValue(value):
			key := strings.ReplaceAll(value, " ", "")
			pins[key] = PinMapping{
				Function:    usage,
				Type:        "digital",
				Description: fmt.Sprintf("%s mapped to %s on %s", usage, key, p.Name),
			}
		case isPowerRail(value):
			pins[value] = PinMapping{
				Function:    usage,
				Type:        TypePower,
				Description: fmt.Sprintf("%s power rail on %s", usage, p.Name),
			}
		}
	}
}

// isPinValue recognises GPIO labels and Arduino D/A pin names.
func isPinValue(v string) bool {
	u := strings.ToUpper(strings.TrimSpace(v))
	if strings.HasPrefix(u, "GPIO") {
		return true
	}
	if len(u) >= 2 && (u[0] == 'D' || u[0] == 'A') && unicode.IsDigit(rune(u[1])) {
		return true
	}
	return false
}

var powerRails = map[string]bool{"GND": true, "3.3V": true, "5V": true, "VCC": true, "VIN": true}

func isPowerRail(v string) bool {
	return powerRails[strings.ToUpper(strings.TrimSpace(v))]
}

func dedup(conns []Connection) []Connection {
	seen := make(map[Connection]bool, len(conns))
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
