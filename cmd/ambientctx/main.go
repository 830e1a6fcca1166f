// Command ambientctx exercises the context collectors from a terminal.
//
// Usage:
//
//	ambientctx windows           list eligible windows
//	ambientctx screen            run one screen aggregation pass
//	ambientctx listen            transcribe system audio for a while
//	ambientctx context           print the assembled context
//
// Configuration is read the same way as the desktop app: defaults, then
// ~/.config/ambientctx/config.yaml or AMBIENT_CONFIG_FILE, then AMBIENT_*
// environment variables.
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
