package main

import (
	"github.com/sw33tLie/exifscope/cmd"
)

func main() {
	cmd.Execute()
}
