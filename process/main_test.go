package process_test

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"
)

// Invoked by `go test`, switch between helper and running tests based on env
func TestMain(m *testing.M) {
	switch os.Getenv("TEST_MAIN") {
	case "exit-with-code":
		code, err := strconv.Atoi(os.Getenv("EXIT_CODE"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "bad EXIT_CODE: %v\n", err)
			os.Exit(1)
		}
		os.Exit(code)

	case "echo":
		fmt.Fprintf(os.Stdout, "llamas\n")
		os.Exit(0)

	case "pwd":
		wd, err := os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "getwd: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, wd)
		os.Exit(0)

	// waits for SIGTERM, exits 0 once it arrives
	case "wait-for-signal":
		signals := make(chan os.Signal, 1)
		signal.Notify(signals, syscall.SIGTERM)

		fmt.Println("Ready")

		select {
		case <-signals:
			os.Exit(0)
		case <-time.After(10 * time.Second):
			os.Exit(5)
		}

	default:
		os.Exit(m.Run())
	}
}
