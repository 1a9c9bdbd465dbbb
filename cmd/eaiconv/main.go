package main

import (
	"os"

	"github.com/dalemusser/eaicheck/internal/eaiconv"
)

func main() {
	os.Exit(eaiconv.Run("eaiconv", os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
