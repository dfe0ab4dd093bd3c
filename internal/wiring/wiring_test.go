package wiring

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const boxTable = `Wiring Connection Table
┌──────────────┬─────────────┬──────────┐
│ Component    │ Pin         │ Board    │
├──────────────┼─────────────┼──────────┤
│ External LED │ (+) Anode   │ Resistor │
│ External LED │ (-) Cathode │ GND      │
│ Resistor     │ Terminal 1  │ GPIO 21  │
│ Resistor     │ Terminal 2  │ LED (+)  │
└──────────────┴─────────────┴──────────┘`

func pins(conns []Connection) []string {
	out := make([]string, 0, len(conns))
	for _, c := range conns {
		out = append(out, c.From+"->"+c.To+":"+c.Pin)
	}
	return out
}

func TestParse_TableRows(t *testing.T) {
	t.Parallel()

	d := Parse(boxTable, Options{})
	assert.Equal(t, []string{
		"External LED->100Ω Resistor:Anode (+)",
		"External LED->GND:Cathode (-)",
		"100Ω Resistor->GPIO21:Terminal 1",
		"100Ω Resistor->External LED:Terminal 2",
	}, pins(d.Connections))
	assert.Empty(t, d.Components)
	assert.Empty(t, d.PinMappings)
}

func TestParse_MarkdownTable(t *testing.T) {
	t.Parallel()

	text := "| Component | Wire | Pin |\n|---|---|---|\n| LED | anode (+) | via resistor |\n|  | cathode | GND |\n\nDone."
	d := Parse(text, Options{})
	assert.Equal(t, []string{"External LED->100Ω Resistor:Anode (+)"}, pins(d.Connections))
}

func TestParse_ProseStatements(t *testing.T) {
	t.Parallel()

	text := "The LED anode connected to the 100Ω resistor.\nLED cathode connected to GPIO 21.\nResistor connected to GPIO21 as well.\nNothing here."
	d := Parse(text, Options{})
	assert.Equal(t, []string{
		"External LED->100Ω Resistor:Anode (+)",
		"External LED->GPIO21:Cathode (-)",
		"100Ω Resistor->GPIO21:One end",
	}, pins(d.Connections))
}

func TestParse_DuplicatesKeptUnlessDedup(t *testing.T) {
	t.Parallel()

	text := boxTable + "\nLED anode connected to resistor"
	kept := Parse(text, Options{})
	assert.Len(t, kept.Connections, 5)
	assert.Equal(t, kept.Connections[0], kept.Connections[4])

	deduped := Parse(text, Options{Dedup: true})
	assert.Len(t, deduped.Connections, 4)
}

func TestParse_SeedsFromPlatform(t *testing.T) {
	t.Parallel()

	d := Parse("", Options{Platform: "box-3"})
	require.NotEmpty(t, d.Components)
	assert.Equal(t, Component{Name: "ESP32-S3-BOX-3", Type: TypeHardware, Description: "Compact AI development board with integrated display and audio"}, d.Components[0])

	byName := map[string]Component{}
	for _, c := range d.Components {
		byName[c.Name] = c
	}
	assert.Equal(t, TypePin, byName["Bread GPIO 21"].Type)
	assert.Equal(t, TypePin, byName["Bread GND"].Type)
	assert.Equal(t, TypeHardware, byName["RST Button"].Type)
	assert.Equal(t, TypeHardware, byName["ADC1_CHANNEL_8_GPIO_NUM"].Type)

	assert.Equal(t, "digital", d.PinMappings["GPIO21"].Type)
	assert.Equal(t, TypePower, d.PinMappings["GND"].Type)
	assert.Equal(t, TypePower, d.PinMappings["3.3V"].Type)
	assert.Empty(t, d.Connections)

	mega := Parse("", Options{Platform: "mega"})
	assert.Equal(t, "Arduino Mega 2560 R3", mega.Components[0].Name)
	assert.Equal(t, "digital", mega.PinMappings["D13"].Type)
	assert.Equal(t, TypePower, mega.PinMappings["5V"].Type)
}

func TestParse_UnknownPlatformSkipsSeeding(t *testing.T) {
	t.Parallel()

	d := Parse("nothing", Options{Platform: "pico"})
	assert.Empty(t, d.Components)
	assert.Empty(t, d.Connections)
}

func TestParse_LegacyFallback(t *testing.T) {
	t.Parallel()

	text := "Connect the External LED to GPIO21 through a resistor. LED on GPIO."
	d := Parse(text, Options{Platform: "esp32-s3-box-3", LegacyFallback: true})

	got := pins(d.Connections)
	assert.Contains(t, got, "External LED->100Ω Resistor:Anode (+)")
	assert.Contains(t, got, "External LED->GND:Cathode (-)")
	assert.Contains(t, got, "100Ω Resistor->GPIO21:Terminal 1")
	assert.Equal(t, PinMapping{
		Function:    "LED Control",
		Type:        "digital_output",
		Description: "GPIO pin 21 configured as digital output for LED blinking",
	}, d.PinMappings["GPIO21"])

	names := map[string]int{}
	for _, c := range d.Components {
		names[c.Name]++
	}
	assert.Equal(t, 1, names["ESP32-S3-BOX-3"])
	assert.Equal(t, 1, names["External LED"])

	off := Parse(text, Options{})
	assert.Empty(t, off.Connections)
	assert.NotContains(t, off.PinMappings, "GPIO21")

	quiet := Parse("Read a DHT11 on D2.", Options{Platform: "mega", LegacyFallback: true})
	for _, c := range quiet.Components {
		assert.NotEqual(t, "External LED", c.Name)
		assert.NotEqual(t, "ESP32-S3-BOX-3", c.Name)
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	doc := NewDocument(boxTable, Metadata{Project: "blink", Platform: "box-3"}, Options{})
	data, err := RenderJSON(doc)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, FormatStructured, got["format"])
	assert.Equal(t, boxTable, got["raw_diagram"])
	assert.Equal(t, map[string]any{"project": "blink", "platform": "box-3"}, got["metadata"])
	assert.Len(t, got["connections"], 4)
}

func TestRenderJSON_EmptyParseIsValid(t *testing.T) {
	t.Parallel()

	data, err := RenderJSON(NewDocument("", Metadata{}, Options{}))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"components": []`)
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	md := RenderMarkdown("LED -> GPIO21", "Use a resistor.")
	assert.True(t, strings.HasPrefix(md, "# Wiring Diagram & Instructions\n"))
	assert.Contains(t, md, "```\nLED -> GPIO21\n```")
	assert.Contains(t, md, "Use a resistor.")
	assert.Contains(t, md, "5. **Display**")
	assert.Contains(t, md, "## Quick Reference")
}

func TestRenderMermaid(t *testing.T) {
	t.Parallel()

	doc := NewDocument(boxTable, Metadata{Platform: "box-3"}, Options{})
	m := RenderMermaid(doc)
	assert.True(t, strings.HasPrefix(m, "graph TB\n"))
	assert.Contains(t, m, `subgraph board["ESP32-S3-BOX-3"]`)
	assert.Contains(t, m, `n1["External LED"]`)
	assert.Contains(t, m, `n1 -->|"Anode (+)"| n2`)

	empty := RenderMermaid(NewDocument("", Metadata{Platform: "custom"}, Options{}))
	assert.Contains(t, empty, `subgraph board["custom"]`)
	assert.Contains(t, empty, "MCU --> I2S")
}

func TestSaveAll_MissingRendererIsWarning(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "proj")
	saved, err := SaveAll(context.Background(), dir, SaveInput{
		Text:       boxTable,
		Info:       "info",
		Metadata:   Metadata{Project: "blink", Platform: "box-3"},
		MermaidCLI: "firmgen-test-no-such-mmdc",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{FileJSON, FileMarkdown, FileMermaid}, saved.Files)
	require.Len(t, saved.Warnings, 1)
	assert.Contains(t, saved.Warnings[0], "mermaid cli not found")

	for _, name := range saved.Files {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}
}

func TestSaveAll_DirErrorIsFatal(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := SaveAll(context.Background(), filepath.Join(file, "sub"), SaveInput{})
	require.Error(t, err)
}

func TestSaveAll_WriteErrorIsReturned(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, FileMarkdown), 0o755))

	saved, err := SaveAll(context.Background(), dir, SaveInput{
		Text:       boxTable,
		Metadata:   Metadata{Project: "blink", Platform: "box-3"},
		MermaidCLI: "firmgen-test-no-such-mmdc",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write "+FileMarkdown)
	assert.Equal(t, []string{FileJSON, FileMermaid}, saved.Files)
	assert.Empty(t, saved.Warnings)
}

func TestRenderSVG_NotFound(t *testing.T) {
	t.Parallel()

	err := RenderSVG(context.Background(), "graph TB", filepath.Join(t.TempDir(), "x.svg"), "firmgen-test-no-such-mmdc")
	require.True(t, errors.Is(err, ErrMermaidCLINotFound))
}
