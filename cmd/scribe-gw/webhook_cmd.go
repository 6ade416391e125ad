package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattjoyce/scribe-gw/internal/webhook"
)

func runWebhookSign(args []string) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	secret := fs.String("secret", os.Getenv("WEBHOOK_SECRET"), "Shared secret (env WEBHOOK_SECRET)")
	file := fs.String("file", "", "Body file (default stdin)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "--secret is required")
		return 1
	}

	var (
		body []byte
		err  error
	)
	if *file != "" {
		body, err = os.ReadFile(*file)
	} else {
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Read body: %v\n", err)
		return 1
	}

	fmt.Println(webhook.Sign([]byte(*secret), body))
	return 0
}
