package main

import (
	"fmt"
	"os"

	"gitlab.apk-group.net/siem/backend/scanner-coordinator/internal/cli"
)

func main() {
	if err := cli.Execute(os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
