package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mind-engage/gradetracker/pkg/gradebook"
)

const (
	ExitSuccess = 0
	ExitFatal   = 1
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := execute(ctx)
	stop()
	if err != nil {
		var fatal *gradebook.FatalError
		if errors.As(err, &fatal) {
			fmt.Fprintf(os.Stderr, "Error: run aborted during %s: %v\n", fatal.Stage, fatal.Err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitFatal)
	}
}
