// Command clipcache is the clipboard history CLI.
package main

import (
	"os"

	"github.com/JudeLabs/ClipCache/internal/cli"
)

func main() {
	root := cli.NewRootCommand()
	if err := root.Execute(); err != nil {
		// JSON errors go to stdout with the rest of the JSON output.
		formatter := &cli.OutputFormatter{Format: "text", Writer: os.Stderr}
		if format, _ := root.PersistentFlags().GetString("format"); format == "json" {
			formatter = &cli.OutputFormatter{Format: "json", Writer: os.Stdout}
		}
		os.Exit(formatter.ReportError(err))
	}
}
