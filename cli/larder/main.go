package main

import (
	"os"

	lardercmder "github.com/papercomputeco/larder/cmd/larder"
)

func main() {
	cmd := lardercmder.NewLarderCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
