// Command travelctl runs the message analysis and trip planning pipeline
// from the command line.
//
// Usage:
//
//	travelctl analyze "<message>" [--lang de]
//	travelctl plan "<message>" [--tools-url URL] [--lat 46.94 --lon 7.44]
//	travelctl send "<message>" --zeebe localhost:26500 [--session id]
//	travelctl lexicon validate [file]
//	travelctl registry validate [file]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
