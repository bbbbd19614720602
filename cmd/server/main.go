package main

import (
	"context"
	"flag"
	"log"

	"physics-playground/internal/app"
	"physics-playground/logging"
)

func main() {
	var eventLog string
	flag.StringVar(&eventLog, "event-log", "", "append newline-delimited structured events to this file")
	flag.Parse()

	cfg := app.Config{Logging: logging.DefaultConfig()}
	cfg.Logging.JSON.FilePath = eventLog

	if err := app.Run(context.Background(), cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
