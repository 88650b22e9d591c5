package main

import (
	"os"

	"github.com/datacube-forge/stacdex/internal/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args))
}
