package wiring

import "strings"

// Names used by the connection vocabulary.
const (
	nameLED      = "External LED"
	nameResistor = "100Ω Resistor"
	nameGND      = "GND"
	legacyPin    = "GPIO21"
)

const electrical = "electrical"

// tableRule synthesises a connection from a table row whose first cell
// contains Component and whose remaining cells contain any of Cell.
type tableRule struct {
	Component string
	Cell      []string
	Conn      Connection
}

var tableRules = []tableRule{
	{
		Component: "led",
		Cell:      []string{"(+) anode", "anode (+)"},
		Conn:      Connection{From: nameLED, To: nameResistor, Pin: "Anode (+)", Type: electrical, Description: "LED anode connected to 100Ω resistor"},
	},
	{
		Component: "led",
		Cell:      []string{"(-) cathode", "cathode (-)"},
		Conn:      Connection{From: nameLED, To: nameGND, Pin: "Cathode (-)", Type: electrical, Description: "LED cathode connected to GND"},
	},
	{
		Component: "resistor",
		Cell:      []string{"terminal 1"},
		Conn:      Connection{From: nameResistor, To: legacyPin, Pin: "Terminal 1", Type: electrical, Description: "Resistor terminal 1 connected to GPIO21"},
	},
	{
		Component: "resistor",
		Cell:      []string{"terminal 2"},
		Conn:      Connection{From: nameResistor, To: nameLED, Pin: "Terminal 2", Type: electrical, Description: "Resistor terminal 2 connected to LED anode"},
	},
}

// proseRule matches a "connected to" sentence when every group has at least
// one phrase present in the line.
type proseRule struct {
	Groups [][]string
	Conn   Connection
}

var proseRules = []proseRule{
	{
		Groups: [][]string{{"led cathode"}, {"gpio 21"}},
		Conn:   Connection{From: nameLED, To: legacyPin, Pin: "Cathode (-)", Type: electrical, Description: "LED cathode connected to GPIO21"},
	},
	{
		Groups: [][]string{{"led anode"}, {"resistor"}},
		Conn:   Connection{From: nameLED, To: nameResistor, Pin: "Anode (+)", Type: electrical, Description: "LED anode connected to 100Ω resistor"},
	},
	{
		Groups: [][]string{{"resistor"}, {"gpio21", "gpio 21"}},
		Conn:   Connection{From: nameResistor, To: legacyPin, Pin: "One end", Type: electrical, Description: "Resistor connected to GPIO21"},
	},
}

var legacyComponents = []Component{
	{Name: "ESP32-S3-BOX-3", Type: TypeHardware, Description: "Main development board with bread breakout"},
	{Name: nameLED, Type: TypeHardware, Description: "Red LED for blinking"},
	{Name: nameResistor, Type: TypeHardware, Description: "Current limiting resistor for LED"},
	{Name: "Breadboard", Type: TypeHardware, Description: "Breadboard for circuit connections"},
	{Name: nameGND, Type: TypePower, Description: "Ground connection"},
	{Name: "3.3V", Type: TypePower, Description: "3.3V power supply"},
	{Name: legacyPin, Type: TypePin, Description: "GPIO pin 21 for LED control"},
}

var legacyConnections = []Connection{
	{From: nameLED, To: nameResistor, Pin: "Anode (+)", Type: electrical, Description: "LED anode connected to current limiting resistor"},
	{From: nameLED, To: nameGND, Pin: "Cathode (-)", Type: electrical, Description: "LED cathode connected to ground"},
	{From: nameResistor, To: legacyPin, Pin: "Terminal 1", Type: electrical, Description: "Resistor connected to GPIO21 output pin"},
}

var legacyPinMapping = PinMapping{
	Function:    "LED Control",
	Type:        "digital_output",
	Description: "GPIO pin 21 configured as digital output for LED blinking",
}

func legacyTriggered(text string) bool {
	return (strings.Contains(text, "LED") && strings.Contains(text, "GPIO")) ||
		(strings.Contains(text, nameLED) && strings.Contains(text, legacyPin))
}

var boxReplacer = strings.NewReplacer("│", "|", "┃", "|", "║", "|")

func isTableStart(lower string) bool {
	return (strings.Contains(lower, "component") && (strings.Contains(lower, "pin") || strings.Contains(lower, "wire"))) ||
		strings.Contains(lower, "wiring connection table")
}

func isSeparatorRow(s string) bool {
	return strings.Trim(s, "-=:+| \t─━┼┬┴├┤┌┐└┘╋") == ""
}

func scanTables(lines []string) []Connection {
	var (
		out     []Connection
		inTable bool
		sawRow  bool
	)
	for _, raw := range lines {
		line := strings.TrimSpace(boxReplacer.Replace(raw))
		lower := strings.ToLower(line)

		if isTableStart(lower) && !sawRow {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if line == "" || isSeparatorRow(line) {
			continue
		}
		if !strings.Contains(line, "|") {
			if sawRow {
				inTable, sawRow = false, false
			}
			continue
		}
		sawRow = true

		cells := strings.Split(strings.Trim(line, "|"), "|")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		if len(cells) < 2 || cells[0] == "" || strings.Contains(strings.ToLower(cells[0]), "component") {
			continue
		}
		if c, ok := matchRow(cells); ok {
			out = append(out, c)
		}
	}
	return out
}

func matchRow(cells []string) (Connection, bool) {
	comp := strings.ToLower(cells[0])
	rest := strings.ToLower(strings.Join(cells[1:], " | "))
	for _, r := range tableRules {
		if !strings.Contains(comp, r.Component) {
			continue
		}
		for _, phrase := range r.Cell {
			if strings.Contains(rest, phrase) {
				return r.Conn, true
			}
		}
	}
	return Connection{}, false
}

func scanProse(lines []string) []Connection {
	var out []Connection
	for _, line := range lines {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "connected to") {
			continue
		}
		for _, r := range proseRules {
			if matchGroups(lower, r.Groups) {
				out = append(out, r.Conn)
				break
			}
		}
	}
	return out
}

func matchGroups(lower string, groups [][]string) bool {
	for _, g := range groups {
		found := false
		for _, phrase := range g {
			if strings.Contains(lower, phrase) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
