// Package main provides the entry point for the slide annotator.
package main

import (
	"log"

	"slide-annotator/internal/commands"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := commands.New().Execute(); err != nil {
		log.Fatalf("slide-annotator: %v", err)
	}
}
