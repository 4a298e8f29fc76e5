// Command videogend runs the video generator HTTP server. It is the container
// entry point; `videogen serve` runs the same runtime with CLI flags.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"videogen/internal/config"
	"videogen/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	logLevel := flag.String("log-level", "", "Override the configured log level")
	flag.Parse()

	if err := run(context.Background(), *configPath, *logLevel); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("videogend: %v", err)
	}
}

func run(ctx context.Context, configPath, logLevel string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return daemonrun.Run(ctx, cfg, daemonrun.Options{LogLevel: logLevel})
}
