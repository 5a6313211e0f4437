package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
)

// outputJSON prints v as indented JSON on stdout.
func outputJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("failed to encode JSON: %v", err)
	}
	fmt.Println(string(data))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// masteryGlyph renders a probability as a colored bar segment for list output.
func masteryGlyph(p float64) string {
	switch {
	case p >= 0.95:
		return green("●")
	case p >= 0.6:
		return yellow("◐")
	default:
		return red("○")
	}
}
