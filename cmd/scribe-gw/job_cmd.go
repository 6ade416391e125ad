package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattjoyce/scribe-gw/internal/api"
	"github.com/mattjoyce/scribe-gw/internal/client"
	"github.com/mattjoyce/scribe-gw/internal/config"
	"github.com/mattjoyce/scribe-gw/internal/job"
	"github.com/mattjoyce/scribe-gw/internal/tui"
)

const envAPIURL = "SCRIBE_API_URL"

// apiFlags registers the connection flags shared by job actions.
func apiFlags(fs *flag.FlagSet) (apiURL, token *string) {
	defURL := os.Getenv(envAPIURL)
	if defURL == "" {
		defURL = client.DefaultURL
	}
	apiURL = fs.String("api", defURL, "Job API base URL (env "+envAPIURL+")")
	token = fs.String("token", os.Getenv(config.EnvAPIKey), "API key (env "+config.EnvAPIKey+")")
	return apiURL, token
}

// parseWithID parses flags that may appear before or after a single
// positional id.
func parseWithID(fs *flag.FlagSet, args []string) (string, error) {
	var id string
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		id, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}
	if id == "" {
		return "", errors.New("job id is required")
	}
	return id, nil
}

func runJobCreate(args []string) int {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	apiURL, token := apiFlags(fs)
	project := fs.String("project", "", "Project name (required)")
	stack := fs.String("stack", "", "Tech stack")
	languages := fs.String("languages", "", "Languages used")
	description := fs.String("description", "", "Project description (required)")
	wait := fs.Bool("wait", false, "Poll until the job finishes and print it")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	req := api.CreateReadmeRequest{
		ProjectName: *project,
		TechStack:   *stack,
		Languages:   *languages,
		Description: *description,
	}
	if err := job.ValidateInputs(job.KindReadme, req.Inputs()); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid job: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*apiURL, *token)
	created, err := c.CreateReadme(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Create failed: %v\n", err)
		return 1
	}
	if !*wait {
		return printJSON(created)
	}

	done, err := c.WaitForJob(ctx, created.JobID, time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Wait failed: %v\n", err)
		return 1
	}
	if code := printJSON(done); code != 0 {
		return code
	}
	if done.Status == job.StatusFailed {
		return 1
	}
	return 0
}

func runJobGet(args []string) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	apiURL, token := apiFlags(fs)
	id, err := parseWithID(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: scribe-gw job get <id>: %v\n", err)
		return 1
	}

	j, err := client.New(*apiURL, *token).GetJob(context.Background(), id)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			fmt.Fprintf(os.Stderr, "Job %s not found\n", id)
		} else {
			fmt.Fprintf(os.Stderr, "Get failed: %v\n", err)
		}
		return 1
	}
	return printJSON(j)
}

func runJobWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	apiURL, token := apiFlags(fs)
	interval := fs.Duration("interval", time.Second, "Polling interval")
	id, err := parseWithID(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: scribe-gw job watch <id>: %v\n", err)
		return 1
	}

	model := tui.NewJobWatch(client.New(*apiURL, *token), id, *interval)
	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Watch failed: %v\n", err)
		return 1
	}
	if w, ok := final.(tui.JobWatch); ok && w.Job() != nil {
		if w.Job().Status == job.StatusFailed {
			return 1
		}
	}
	return 0
}
