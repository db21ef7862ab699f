package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "health":
		return runHealth(args[1:])
	case "scrape":
		return runScrape(args[1:])
	case "cluster":
		return runCluster(args[1:])
	case "refresh":
		return runRefresh(args[1:])
	case "cleanup":
		return runCleanup(args[1:])
	case "run":
		return runDaemon(args[1:])
	case "serve":
		return runServe(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "pulse CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  pulse <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  health   Verify database connectivity and show record stats")
	fmt.Fprintln(os.Stderr, "  scrape   Run one ingest pass across all configured sources")
	fmt.Fprintln(os.Stderr, "  cluster  Rebuild the topic set and recompute metrics")
	fmt.Fprintln(os.Stderr, "  refresh  Recompute metrics for the current topics")
	fmt.Fprintln(os.Stderr, "  cleanup  Apply the retention policy to records and topics")
	fmt.Fprintln(os.Stderr, "  run      Start the job scheduler and the API server")
	fmt.Fprintln(os.Stderr, "  serve    Start the API server only")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"pulse <command> -h\" for command-specific flags.")
}
