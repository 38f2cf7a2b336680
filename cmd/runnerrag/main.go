package main

import (
	"github.com/joho/godotenv"
	"runnerrag/internal/cli"
)

func main() {
	// A local .env may carry OPENAI_API_KEY; absence is fine.
	_ = godotenv.Load()
	cli.Execute()
}
