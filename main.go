package main

import (
	"fmt"
	"os"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
