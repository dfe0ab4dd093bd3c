// Package features classifies designs into capability tags and maps source
// includes to Arduino library names.
package features

import (
	"regexp"
	"slices"
	"strings"
)

// Capability tags.
const (
	Display  = "display"
	Timer    = "timer"
	DHT11    = "dht11"
	MPU6050  = "mpu6050"
	Wireless = "wireless"
)

var vocabulary = []struct {
	tag      string
	keywords []string
}{
	{Display, []string{"lcd", "display", "screen", "tft", "ili9341"}},
	{Timer, []string{"timer", "timer interrupt", "timerinterrupt"}},
	{DHT11, []string{"dht11"}},
	{MPU6050, []string{"mpu 6050", "mpu6050"}},
	{Wireless, []string{"wifi", "web server", "http", "mqtt"}},
}

// Set is a set of capability tags.
type Set map[string]bool

// Has reports whether tag is in the set.
func (s Set) Has(tag string) bool { return s[tag] }

// Sorted returns the tags in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for tag := range s {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// Classify tags a design by case-insensitive keyword match.
func Classify(text string) Set {
	lower := strings.ToLower(text)
	set := Set{}
	for _, v := range vocabulary {
		for _, kw := range v.keywords {
			if strings.Contains(lower, kw) {
				set[v.tag] = true
				break
			}
		}
	}
	return set
}

var includePattern = regexp.MustCompile(`#include\s*[<"]([^>"]+)[>"]`)

// Includes returns the targets of every #include directive in source order.
func Includes(source string) []string {
	var out []string
	for _, m := range includePattern.FindAllStringSubmatch(source, -1) {
		out = append(out, m[1])
	}
	return out
}

var libraries = map[string]string{
	"WiFi.h":             "WiFi",
	"Wire.h":             "Wire",
	"SPI.h":              "SPI",
	"lvgl.h":             "lvgl",
	"TFT_eSPI.h":         "TFT_eSPI",
	"Adafruit_GFX.h":     "Adafruit GFX Library",
	"Adafruit_ILI9341.h": "Adafruit ILI9341",
	"DHT11.h":            "DHT11",
	"Adafruit_MPU6050.h": "Adafruit MPU6050",
	"TimerInterrupt.h":   "TimerInterrupt",
}

// Libraries maps the includes of source to Arduino library names, sorted and unique.
func Libraries(source string) []string {
	var out []string
	for _, inc := range Includes(source) {
		if lib, ok := libraries[inc]; ok && !slices.Contains(out, lib) {
			out = append(out, lib)
		}
	}
	slices.Sort(out)
	return out
}

// LCDHeader is the board LCD configuration header shipped with ESP-IDF projects.
const LCDHeader = "esp32s3_box_lcd_config.h"

// UsesLCDHeader reports whether source includes the LCD configuration header.
func UsesLCDHeader(source string) bool {
	return slices.Contains(Includes(source), LCDHeader)
}

// UsesLVGL reports whether source includes lvgl.
func UsesLVGL(source string) bool {
	return slices.Contains(Includes(source), "lvgl.h")
}
