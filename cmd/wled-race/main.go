package main

import (
	"fmt"
	"os"

	"github.com/denwilliams/go-wled-race/internal/config"
)

func init() {
	config.LoadDotEnv(".env")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
