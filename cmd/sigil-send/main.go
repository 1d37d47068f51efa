// sigil-send signs a payload and delivers it to a receiver endpoint. It is
// the reference publisher: one POST, no retries.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/sigilhq/sigil/internal/keys"
	"github.com/sigilhq/sigil/internal/log"
	"github.com/sigilhq/sigil/internal/publish"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sigil-send", flag.ExitOnError)
	endpoint := fs.String("endpoint", "", "Receiver endpoint URL (required)")
	secretEnv := fs.String("secret-env", "SIGIL_SECRET", "Environment variable holding the shared key")
	messageID := fs.String("id", "", "Message id (default: generated uuid)")
	payloadPath := fs.String("payload", "-", "Payload file, or - for stdin")
	timeout := fs.Duration("timeout", publish.DefaultTimeout, "Delivery timeout")
	logLevel := fs.String("log-level", "WARN", "Log level")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if *endpoint == "" {
		fmt.Fprintln(os.Stderr, "Usage: sigil-send -endpoint URL [-id ID] [-payload FILE]")
		return 1
	}

	secret := os.Getenv(*secretEnv)
	if secret == "" {
		fmt.Fprintf(os.Stderr, "No key in $%s\n", *secretEnv)
		return 1
	}

	payload, err := readPayload(*payloadPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read payload: %v\n", err)
		return 1
	}

	id := *messageID
	if id == "" {
		id = uuid.NewString()
	}

	log.Setup(*logLevel)
	pub := publish.New(*endpoint, keys.Static(secret), nil, nil, log.WithComponent("publisher"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	status, err := pub.Publish(ctx, id, payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Delivery failed: %v\n", err)
		return 1
	}

	fmt.Printf("%s %d\n", id, status)
	if status >= 400 {
		return 1
	}
	return 0
}

func readPayload(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
