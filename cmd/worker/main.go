package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker sweep")
	}

	switch os.Args[1] {
	case "sweep":
		RunSweep()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
