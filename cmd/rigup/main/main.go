package main

import (
	"fmt"
	"os"

	"github.com/benchrig/rigup/cmd/rigup"
	"github.com/benchrig/rigup/pkg/output/styles"
)

func main() {
	rootCmd := rigup.NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		errorStyle := styles.GetStyle("Error")
		fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Error: %v", err)))
		os.Exit(1)
	}
}
