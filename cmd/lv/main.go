// Command lv is a keyboard-driven local media viewer and library: it
// indexes tracked directories into a SQLite catalogue, watches them for
// changes, and presents the collection through the Navigation/Display
// Core's key bindings (see internal/nav).
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
