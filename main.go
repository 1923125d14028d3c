package main

import (
	"os"

	"github.com/abhisek/dealbreaker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
