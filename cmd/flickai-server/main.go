package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"flickai-server-go/internal/bootstrap"
)

func main() {
	configPath := flag.String("config", ".config.yaml", "path to the configuration file")
	flag.Parse()

	if err := bootstrap.Run(context.Background(), bootstrap.Options{ConfigPath: *configPath}); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "flickai-server failed: %v\n", err)
		os.Exit(1)
	}
}
