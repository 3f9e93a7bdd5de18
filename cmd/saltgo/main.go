// Command saltgo extracts basis information and runs sparse GPR learning
// curves of a global property.
package main

import (
	"os"

	"github.com/YuminosukeSato/saltgo/pkg/log"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.GetLogger().Error("saltgo failed", err)
		os.Exit(1)
	}
}
