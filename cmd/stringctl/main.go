package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func init() {
	// A missing .env is fine; STRINGANALYZER_URL may come from the shell.
	_ = godotenv.Load(".env")
}

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) { w.Out = os.Stderr })).
		With().Timestamp().Logger().
		Level(zerolog.WarnLevel)

	if err := newRootCmd(os.Stdout, log).Execute(); err != nil {
		os.Exit(1)
	}
}
