// Command claudia drives Claude through a Markdown task list.
package main

import (
	"os"

	"github.com/Iron-Ham/claudia/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
