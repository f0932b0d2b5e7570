package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress      string
	OpenAIKey        string
	RealtimeModel    string
	InterviewerVoice string
	CandidateVoice   string
}

// Load reads environment variables and returns Config with sane defaults.
// A missing OPENAI_API_KEY is fatal: the process refuses to start rather
// than open sessions that can never connect.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}

	model := os.Getenv("OPENAI_REALTIME_MODEL")
	if model == "" {
		model = "gpt-4o-realtime-preview"
	}

	log.Printf("config: HTTP_ADDRESS=%s model=%s", addr, model)
	return Config{
		HTTPAddress:      addr,
		OpenAIKey:        key,
		RealtimeModel:    model,
		InterviewerVoice: os.Getenv("INTERVIEWER_VOICE"),
		CandidateVoice:   os.Getenv("CANDIDATE_VOICE"),
	}
}
