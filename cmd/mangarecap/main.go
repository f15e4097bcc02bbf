package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "mangarecap:", err)
		} else {
			fmt.Fprintln(os.Stderr, "mangarecap: interrupted")
		}
		os.Exit(1)
	}
}
