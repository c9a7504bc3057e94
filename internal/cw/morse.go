// internal/cw/morse.go
// Package cw turns tone on/off runs into Morse text.
package cw

import (
	"strings"
	"unicode"
)

// Morse code timing ratios (ITU standard), in dit units.
const (
	// DahDitRatio is the ratio of dah duration to dit duration (ITU: 3:1)
	DahDitRatio = 3.0
	// IntraCharSpaceRatio is the space between elements within a character (ITU: 1:1)
	IntraCharSpaceRatio = 1.0
	// InterCharSpaceRatio is the space between characters (ITU: 3:1)
	InterCharSpaceRatio = 3.0
	// WordSpaceRatio is the space between words (ITU: 7:1)
	WordSpaceRatio = 7.0

	// MillisecondsPerMinute is used for WPM calculations
	MillisecondsPerMinute = 60000.0
	// DitsPerWord is the standard word "PARIS" = 50 dit units
	DitsPerWord = 50.0
)

// DefaultUnknownSymbol is emitted for codes missing from Table.
const DefaultUnknownSymbol = "*"

// Table maps dot/dash codes to their text. Prosigns decode to <XX> markers.
var Table = map[string]string{
	// letters
	".-": "A", "-...": "B", "-.-.": "C", "-..": "D", ".": "E",
	"..-.": "F", "--.": "G", "....": "H", "..": "I", ".---": "J",
	"-.-": "K", ".-..": "L", "--": "M", "-.": "N", "---": "O",
	".--.": "P", "--.-": "Q", ".-.": "R", "...": "S", "-": "T",
	"..-": "U", "...-": "V", ".--": "W", "-..-": "X", "-.--": "Y",
	"--..": "Z",

	// digits
	".----": "1", "..---": "2", "...--": "3", "....-": "4", ".....": "5",
	"-....": "6", "--...": "7", "---..": "8", "----.": "9", "-----": "0",

	// punctuation
	".-.-.-": ".", "--..--": ",", "..--..": "?", "-..-.": "/",
	"-...-": "=", ".-.-.": "+", ".--.-.": "@", "-.--.": "(",
	"-.--.-": ")", "---...": ":", "-.-.-.": ";", ".----.": "'",
	".-..-.": "\"", "-....-": "-", "..--.-": "_", "...-..-": "$",
	"-.-.--": "!",

	// prosigns without a punctuation equivalent
	"...-.-": "<SK>", ".-...": "<AS>", "...-.": "<VE>", "-...-.-": "<BK>",
}

// reverse is the text -> code view of Table for single characters.
var reverse = func() map[rune]string {
	m := make(map[rune]string, len(Table))
	for code, text := range Table {
		r := []rune(text)
		if len(r) == 1 {
			m[r[0]] = code
		}
	}
	return m
}()

// SymbolDecoder maps one letter's dot/dash code to its text.
type SymbolDecoder func(code string) string

// NewSymbolDecoder returns a decoder backed by Table that emits unknown for
// codes the table does not contain.
func NewSymbolDecoder(unknown string) SymbolDecoder {
	return func(code string) string {
		if text, ok := Table[code]; ok {
			return text
		}
		return unknown
	}
}

// DecodeSymbol looks code up in Table, falling back to DefaultUnknownSymbol.
func DecodeSymbol(code string) string {
	if text, ok := Table[code]; ok {
		return text
	}
	return DefaultUnknownSymbol
}

// EncodeText converts text to Morse words: one slice per word, one code per
// character. Characters without a code are skipped.
func EncodeText(text string) [][]string {
	var words [][]string
	for _, field := range strings.Fields(text) {
		var codes []string
		for _, r := range field {
			if code, ok := reverse[unicode.ToUpper(r)]; ok {
				codes = append(codes, code)
			}
		}
		if len(codes) > 0 {
			words = append(words, codes)
		}
	}
	return words
}

// DitDuration returns the ITU dit length in milliseconds at the given speed.
func DitDuration(wpm float64) float64 {
	return MillisecondsPerMinute / (wpm * DitsPerWord)
}
