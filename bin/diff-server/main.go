package main

import (
	"context"
	"flag"
	"frame-differencer/internal/runnable"
	"log"

	"github.com/joho/godotenv"
)

func main() {
	var envFile string
	flag.StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	flag.BoolVar(&runnable.Debug, "debug", false, "Enable text logs and pprof endpoints")
	flag.Parse()

	if err := godotenv.Load(envFile); err != nil && envFile != ".env" {
		log.Fatalf("Failed to load %s: %v", envFile, err)
	}

	ctx := context.Background()

	server := runnable.NewServer()
	if err := server.Start(ctx); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
