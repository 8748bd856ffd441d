package main

import (
	"errors"
	"fmt"
	"os"

	"certo/internal/cli"
)

func main() {
	err := cli.Execute()
	if err == nil {
		return
	}

	var exit *cli.ExitError
	if errors.As(err, &exit) {
		if exit.Msg != "" {
			fmt.Fprintf(os.Stderr, "Error: %s\n", exit.Msg)
		}
		os.Exit(exit.Code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
