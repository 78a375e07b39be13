package main

import (
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aldenvr/stagepass/internal/server"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logrus.Info("no .env file found, using environment")
	}

	if err := server.Start(); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}
