package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/pantrylab/pantry-service/pantryservice"
)

func main() {
	if err := pantryservice.Run(); err != nil {
		log.Error().Err(err).Msg("pantry-service exited with error")
		os.Exit(1)
	}
}
