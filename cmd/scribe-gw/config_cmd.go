package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattjoyce/scribe-gw/internal/config"
)

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	envFile := fs.String("env-file", "", "Path to .env file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, path, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config check failed: %v\n", err)
		return 1
	}

	if path == "" {
		fmt.Println("No config file; using defaults and environment")
	} else {
		fmt.Printf("Config: %s\n", path)
		if _, err := os.Stat(filepath.Join(filepath.Dir(path), config.ChecksumFile)); err == nil {
			fmt.Println("Integrity: verified")
		} else {
			fmt.Println("Integrity: not locked (run 'scribe-gw config lock')")
		}
	}
	for _, w := range config.Warnings(cfg) {
		fmt.Printf("WARN %s\n", w)
	}
	fmt.Println("OK")
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	path := config.ResolvePath(*configPath)
	if path == "" {
		fmt.Fprintln(os.Stderr, "No config file to lock (use --config)")
		return 1
	}

	manifest, err := config.Lock(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Lock failed: %v\n", err)
		return 1
	}
	for name, hash := range manifest.Hashes {
		fmt.Printf("HASH %s: %s\n", name, hash)
	}
	fmt.Printf("Wrote %s\n", filepath.Join(filepath.Dir(path), config.ChecksumFile))
	return 0
}
