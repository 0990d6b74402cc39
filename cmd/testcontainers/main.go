package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/localnerve/docsdb/internal/devstack"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the docsdb development containers with the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

example
  testcontainers -f /path/to/something/.env
`
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		logrus.Infof("Loading environment variables from %s", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			logrus.Fatalf("Failed to load environment variables: %v", err)
		}
	} else {
		logrus.Info("No environment file specified, using current environment variables")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGTSTP, syscall.SIGQUIT)

	ctx := context.Background()
	stack, err := devstack.Start(ctx)
	if err != nil {
		logrus.Fatalf("Failed to start containers: %v", err)
	}

	// Overrides for a server running on the host
	keys := make([]string, 0, len(stack.Env))
	for k := range stack.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, stack.Env[k])
	}
	logrus.Info("docsdb containers started successfully")

	sig := <-sigs
	logrus.Infof("Received signal: %v, terminating containers...", sig)
	stack.Terminate(ctx)
}
