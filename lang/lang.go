// Package lang holds the user-facing texts of the bot in French and English.
package lang

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	Fr = "fr"
	En = "en"
)

//go:embed messages.yaml
var messagesYAML []byte

var messages = mustLoad(messagesYAML)

func mustLoad(data []byte) map[string]map[string]string {
	m, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return m
}

// Parse reads a catalog of the form {lang: {key: text}}.
func Parse(data []byte) (map[string]map[string]string, error) {
	var m map[string]map[string]string
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse messages: %w", err)
	}
	if _, ok := m[Fr]; !ok {
		return nil, fmt.Errorf("messages: missing %q section", Fr)
	}
	return m, nil
}

// Supported reports whether code has a catalog.
func Supported(code string) bool {
	_, ok := messages[code]
	return ok
}

// Languages lists the available codes, French first.
func Languages() []string {
	return []string{Fr, En}
}

// T returns the text for key in code, formatted with args. Missing texts fall
// back to French, then to the key itself.
func T(code, key string, args ...interface{}) string {
	text, ok := messages[code][key]
	if !ok {
		text, ok = messages[Fr][key]
	}
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// Keys returns every key of the code catalog.
func Keys(code string) []string {
	keys := make([]string, 0, len(messages[code]))
	for k := range messages[code] {
		keys = append(keys, k)
	}
	return keys
}
