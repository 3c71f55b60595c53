package main

import (
	"log"

	"botfleet/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Start(); err != nil {
		log.Printf("application stopped: %v", err)
	}

	if err := application.Stop(); err != nil {
		log.Printf("error stopping application: %v", err)
	}

	log.Println("application stopped gracefully")
}
