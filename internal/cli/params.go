package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadBindings assembles the parameter bindings of one invocation from an
// optional YAML file plus repeated name=value flags. Flag values override
// file values of the same name.
func LoadBindings(file string, pairs []string) (map[string]interface{}, error) {
	bindings := make(map[string]interface{})

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading params file: %w", err)
		}
		if err := yaml.Unmarshal(data, &bindings); err != nil {
			return nil, fmt.Errorf("parsing params file %s: %w", file, err)
		}
	}

	for _, pair := range pairs {
		name, value, err := parsePair(pair)
		if err != nil {
			return nil, err
		}
		bindings[name] = value
	}
	return bindings, nil
}

// parsePair splits a name=value flag and infers the value's type: boolean,
// integer, float, then string. Quote the value to force a string.
func parsePair(pair string) (string, interface{}, error) {
	name, raw, ok := strings.Cut(pair, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("invalid parameter %q: expected name=value", pair)
	}

	if len(raw) >= 2 {
		if q := raw[0]; (q == '"' || q == '\'') && raw[len(raw)-1] == q {
			return name, raw[1 : len(raw)-1], nil
		}
	}
	switch raw {
	case "true":
		return name, true, nil
	case "false":
		return name, false, nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return name, i, nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return name, f, nil
	}
	return name, raw, nil
}
