package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	switch cmd {
	case "system":
		return runSystemNoun(args)
	case "config":
		return runConfigNoun(args)
	case "job":
		return runJobNoun(args)
	case "webhook":
		return runWebhookNoun(args)
	case "version", "--version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	info := currentVersionInfo()
	if *jsonOut {
		return printJSON(info)
	}
	fmt.Printf("scribe-gw %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = readBuildSetting("vcs.revision")
	}
	if commit != "" {
		if len(commit) > 12 {
			commit = commit[:12]
		}
		info.Commit = commit
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = readBuildSetting("vcs.time")
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return strings.TrimSpace(setting.Value)
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`scribe-gw - README and changelog generation gateway

Usage:
  scribe-gw <noun> <action> [flags]

System Commands:
  system start        Run the job API, webhook listener, runner and janitor

Config Commands:
  config check        Load, validate and verify integrity
  config lock         Write BLAKE3 checksums for the config file

Job Commands:
  job create          Submit a README generation job
  job get <id>        Print a job as JSON
  job watch <id>      Follow a job in a terminal UI until it finishes

Webhook Commands:
  webhook sign        Print the X-Hub-Signature-256 value for a body

General:
  version             Show version information
  help                Show this help message

Use 'scribe-gw <noun> help' for action-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemHelp(os.Stderr)
		return 1
	}
	switch args[0] {
	case "start":
		return runSystemStart(args[1:])
	case "help", "--help", "-h":
		printSystemHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", args[0])
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigHelp(os.Stderr)
		return 1
	}
	switch args[0] {
	case "check":
		return runConfigCheck(args[1:])
	case "lock":
		return runConfigLock(args[1:])
	case "help", "--help", "-h":
		printConfigHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", args[0])
		return 1
	}
}

func runJobNoun(args []string) int {
	if len(args) < 1 {
		printJobHelp(os.Stderr)
		return 1
	}
	switch args[0] {
	case "create":
		return runJobCreate(args[1:])
	case "get":
		return runJobGet(args[1:])
	case "watch":
		return runJobWatch(args[1:])
	case "help", "--help", "-h":
		printJobHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown job action: %s\n", args[0])
		return 1
	}
}

func runWebhookNoun(args []string) int {
	if len(args) < 1 {
		printWebhookHelp(os.Stderr)
		return 1
	}
	switch args[0] {
	case "sign":
		return runWebhookSign(args[1:])
	case "help", "--help", "-h":
		printWebhookHelp(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown webhook action: %s\n", args[0])
		return 1
	}
}

func printSystemHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: scribe-gw system start [--config PATH] [--env-file PATH]")
}

func printConfigHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: scribe-gw config <check|lock> [--config PATH] [--env-file PATH]")
}

func printJobHelp(w *os.File) {
	fmt.Fprintln(w, `Usage:
  scribe-gw job create --project NAME --description TEXT [--stack S] [--languages L] [--wait] [--api URL] [--token T]
  scribe-gw job get <id> [--api URL] [--token T]
  scribe-gw job watch <id> [--interval 1s] [--api URL] [--token T]`)
}

func printWebhookHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: scribe-gw webhook sign --secret S [--file F]   (body read from stdin without --file)")
}

func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}
