// Package main is the signaling-service entry point (HTTP + WebSocket).
package main

import (
	"log"

	"github.com/padasalalakshmi-a11y/GoogleMeet-Backendss/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
