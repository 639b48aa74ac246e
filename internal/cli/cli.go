package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// CommandType represents the type of CLI command
type CommandType int

const (
	CommandHelp CommandType = iota
	CommandVersion
	CommandServe
	CommandSweep
	CommandUpdate
)

// Command represents a parsed CLI command
type Command struct {
	Type       CommandType
	Port       int
	ConfigPath string
	CheckOnly  bool
}

// String returns a string representation of the command
func (c *Command) String() string {
	switch c.Type {
	case CommandHelp:
		return "help"
	case CommandVersion:
		return "version"
	case CommandServe:
		return fmt.Sprintf("serve (port: %d)", c.Port)
	case CommandSweep:
		return "sweep"
	case CommandUpdate:
		if c.CheckOnly {
			return "update (check only)"
		}
		return "update"
	default:
		return "unknown"
	}
}

// CLI represents the command-line interface
type CLI struct {
	version string
}

// NewCLI creates a new CLI instance
func NewCLI(version string) *CLI {
	return &CLI{
		version: version,
	}
}

// ParseCommand parses command-line arguments and returns a Command
func (c *CLI) ParseCommand(args []string) (*Command, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no command specified")
	}

	// Check for global flags first
	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return &Command{Type: CommandHelp}, nil
	}

	if args[0] == "-v" || args[0] == "--version" || args[0] == "version" {
		return &Command{Type: CommandVersion}, nil
	}

	// Parse subcommands
	switch args[0] {
	case "serve":
		return c.parseServeCommand(args[1:])
	case "sweep":
		return c.parseSweepCommand(args[1:])
	case "update":
		return c.parseUpdateCommand(args[1:])
	default:
		return nil, fmt.Errorf("unknown command: %s", args[0])
	}
}

// parseServeCommand parses the serve command
func (c *CLI) parseServeCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.Int("port", 0, "Server port (overrides config)")
	configPath := fs.String("config", "", "Config file path (default if empty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Command{
		Type:       CommandServe,
		Port:       *port,
		ConfigPath: *configPath,
	}, nil
}

// parseSweepCommand parses the sweep command
func (c *CLI) parseSweepCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	configPath := fs.String("config", "", "Config file path (default if empty)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Command{
		Type:       CommandSweep,
		ConfigPath: *configPath,
	}, nil
}

// parseUpdateCommand parses the update command
func (c *CLI) parseUpdateCommand(args []string) (*Command, error) {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	checkOnly := fs.Bool("check", false, "Only check for updates without installing")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	return &Command{
		Type:      CommandUpdate,
		CheckOnly: *checkOnly,
	}, nil
}

// PrintHelp prints the help message
func (c *CLI) PrintHelp(w io.Writer) {
	help := `tubefetch - media download and transcode API

Usage:
  tubefetch [command] [flags]

Available Commands:
  serve       Start HTTP API server
  sweep       Delete expired files from the download cache
  update      Update the managed yt-dlp binary to the latest nightly
  version     Print version information
  help        Print this help message

Serve Flags:
  -port int       Server port (overrides config and PORT env)
  -config string  Config file path (default if empty)

Sweep Flags:
  -config string  Config file path (default if empty)

Update Flags:
  -check   Only check for updates without installing

Examples:
  tubefetch serve
  tubefetch serve -port 9000
  tubefetch sweep
  tubefetch update -check
  tubefetch version
`
	fmt.Fprint(w, help)
}

// PrintVersion prints the version information
func (c *CLI) PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "tubefetch version %s\n", c.version)
}

// Run executes the CLI with the given arguments
func (c *CLI) Run(args []string) int {
	cmd, err := c.ParseCommand(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		c.PrintHelp(os.Stderr)
		return 1
	}

	switch cmd.Type {
	case CommandHelp:
		c.PrintHelp(os.Stdout)
		return 0
	case CommandVersion:
		c.PrintVersion(os.Stdout)
		return 0
	default:
		// Other commands will be handled by the main function
		return 0
	}
}
