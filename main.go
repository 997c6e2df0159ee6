// timeline2svg renders animated SVG timelines and activity charts.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/dbitech/timeline2svg/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
