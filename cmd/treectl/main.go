// Command treectl inspects and converts tree JSON documents offline.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "treectl:", err)
		os.Exit(1)
	}
}
