package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"opsportal/internal/app/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	if err := server.Run(); err != nil {
		slog.Error("server exited", "err", err)
		os.Exit(1)
	}
}
