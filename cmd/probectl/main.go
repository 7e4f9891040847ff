package main

import (
	"os"

	"bindprobe/internal/probectl"
)

func main() {
	os.Exit(probectl.Main(os.Args[1:]))
}
