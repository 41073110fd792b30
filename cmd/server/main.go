// Command server runs the donor analytics API and its maintenance commands.
package main

import (
	"os"

	"donor-analytics/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
