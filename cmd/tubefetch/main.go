package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"tubefetch/internal/api"
	"tubefetch/internal/cache"
	"tubefetch/internal/cli"
	"tubefetch/internal/config"
	"tubefetch/internal/download"
	"tubefetch/internal/ytdlp"
	"tubefetch/pkg/models"
)

const Version = "1.0.0"

func main() {
	cliApp := cli.NewCLI(Version)

	if len(os.Args) < 2 {
		cliApp.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	cmd, err := cliApp.ParseCommand(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		cliApp.PrintHelp(os.Stderr)
		os.Exit(1)
	}

	// Handle help and version commands
	if cmd.Type == cli.CommandHelp {
		cliApp.PrintHelp(os.Stdout)
		os.Exit(0)
	}

	if cmd.Type == cli.CommandVersion {
		cliApp.PrintVersion(os.Stdout)
		os.Exit(0)
	}

	os.Exit(executeCommand(cmd))
}

func executeCommand(cmd *cli.Command) int {
	switch cmd.Type {
	case cli.CommandServe:
		return runServe(cmd)
	case cli.CommandSweep:
		return runSweep(cmd)
	case cli.CommandUpdate:
		return runUpdate(cmd.CheckOnly)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd.String())
		return 1
	}
}

// loadConfig resolves the config path and loads the configuration
func loadConfig(cmd *cli.Command) (*models.Config, error) {
	configPath := cmd.ConfigPath
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}

	cfgMgr, err := config.NewManager(configPath)
	if err != nil {
		return nil, err
	}

	cfg := cfgMgr.Get()
	if cmd.Port != 0 {
		cfg.ListenPort = cmd.Port
	}
	if cfg.CachePath == "" {
		cfg.CachePath = config.GetDefaultCachePath()
	}

	return cfg, nil
}

func runServe(cmd *cli.Command) int {
	logger := log.New(os.Stdout, "tubefetch: ", log.LstdFlags)

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	// Resolve the yt-dlp binary, installing if allowed
	binPath := cfg.YtdlpPath
	if binPath == "" {
		installer := ytdlp.NewInstaller(filepath.Join(config.GetDataDir(), "bin"))
		if cfg.YtdlpAutoInstall {
			if err := installer.EnsureInstalled(); err != nil {
				fmt.Fprintf(os.Stderr, "Error installing yt-dlp: %v\n", err)
				return 1
			}
		}
		binPath = installer.BinaryPath()
	}

	store, err := cache.NewStore(cfg.CachePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating cache: %v\n", err)
		return 1
	}

	engine := ytdlp.NewClient(binPath, cfg.YtdlpAdditionalArgs, logger)
	orchestrator := download.NewOrchestrator(engine, store, logger)
	server := api.NewServer(cfg, store, engine, orchestrator, logger)

	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}

	logger.Printf("listening on %s (cache: %s, ttl: %ds)", server.GetActualAddr(), cfg.CachePath, cfg.CacheTTLSeconds)

	// Keep server running (Start returns immediately)
	select {}
}

func runSweep(cmd *cli.Command) int {
	logger := log.New(os.Stdout, "tubefetch: ", log.LstdFlags)

	cfg, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 1
	}

	store, err := cache.NewStore(cfg.CachePath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		return 1
	}

	before := store.Count()
	if err := store.Sweep(time.Duration(cfg.CacheTTLSeconds) * time.Second); err != nil {
		fmt.Fprintf(os.Stderr, "Sweep error: %v\n", err)
		return 1
	}

	fmt.Printf("Swept %d expired file(s) from %s\n", before-store.Count(), cfg.CachePath)
	return 0
}

func runUpdate(checkOnly bool) int {
	installer := ytdlp.NewInstaller(filepath.Join(config.GetDataDir(), "bin"))

	latestVersion, hasUpdate, err := installer.CheckForUpdate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error checking for updates: %v\n", err)
		return 1
	}

	if !hasUpdate {
		fmt.Printf("yt-dlp is up to date (%s)\n", latestVersion)
		return 0
	}

	fmt.Printf("Update available: %s\n", latestVersion)

	if checkOnly {
		fmt.Println("Run 'tubefetch update' to install the update")
		return 0
	}

	if err := installer.Install(); err != nil {
		fmt.Fprintf(os.Stderr, "Error updating yt-dlp: %v\n", err)
		return 1
	}

	return 0
}
