package main

import (
	"fmt"
	"os"

	"github.com/spiffcs/issuewatch/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
