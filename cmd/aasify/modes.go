package main

import (
	"fmt"
	"os"
	"strings"
)

// triState is the auto|on|off value shared by --ui and --color.
type triState string

const (
	triAuto triState = "auto"
	triOn   triState = "on"
	triOff  triState = "off"
)

func parseTriState(flag, value string) (triState, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return triAuto, nil
	case "on":
		return triOn, nil
	case "off":
		return triOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// resolve decides auto against the terminal state of f.
func (s triState) resolve(f *os.File) bool {
	switch s {
	case triOn:
		return true
	case triOff:
		return false
	default:
		return isTerminal(f)
	}
}

func readUIMode(value string) (triState, error) { return parseTriState("ui", value) }

func shouldUseTUI(mode triState) bool { return mode.resolve(os.Stdout) }

func readColorMode(value string) (bool, error) {
	mode, err := parseTriState("color", value)
	if err != nil {
		return false, err
	}
	return mode.resolve(os.Stdout), nil
}
