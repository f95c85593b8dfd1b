package main

import (
	"fmt"
	"os"

	"raton/internal/cli"
)

func main() {
	if err := cli.New(cli.Options{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
