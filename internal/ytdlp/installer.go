package ytdlp

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	ytdlpNightlyAPI = "https://api.github.com/repos/yt-dlp/yt-dlp-nightly-builds/releases/latest"
	checkTimeout    = 30 * time.Second
)

// HTTPClient interface for mocking
type HTTPClient interface {
	Get(url string) (*http.Response, error)
}

// Installer handles yt-dlp installation and updates
type Installer struct {
	binDir         string
	currentVersion string
	lastCheckTime  time.Time
	httpClient     HTTPClient
}

// GitHubRelease represents a GitHub release
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// NewInstaller creates a new yt-dlp installer
func NewInstaller(binDir string) *Installer {
	return NewInstallerWithClient(binDir, &http.Client{Timeout: checkTimeout})
}

// NewInstallerWithClient creates an installer with custom HTTP client
func NewInstallerWithClient(binDir string, client HTTPClient) *Installer {
	// Ensure bin directory exists
	os.MkdirAll(binDir, 0755)

	return &Installer{
		binDir:     binDir,
		httpClient: client,
	}
}

// BinaryPath returns the path to the yt-dlp executable
func (i *Installer) BinaryPath() string {
	return filepath.Join(i.binDir, detectPlatform())
}

// IsInstalled checks if yt-dlp is installed
func (i *Installer) IsInstalled() bool {
	_, err := os.Stat(i.BinaryPath())
	return err == nil
}

// CurrentVersion returns the currently installed version
func (i *Installer) CurrentVersion() string {
	return i.currentVersion
}

// CheckForUpdate checks if a newer version is available
func (i *Installer) CheckForUpdate() (string, bool, error) {
	resp, err := i.httpClient.Get(ytdlpNightlyAPI)
	if err != nil {
		return "", false, fmt.Errorf("failed to check for updates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("GitHub API returned status %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", false, fmt.Errorf("failed to parse release info: %w", err)
	}

	i.lastCheckTime = time.Now()

	// If not installed, any version is an update
	if !i.IsInstalled() {
		return release.TagName, true, nil
	}

	if i.currentVersion == "" || i.currentVersion != release.TagName {
		return release.TagName, true, nil
	}

	return release.TagName, false, nil
}

// Install downloads and installs yt-dlp
func (i *Installer) Install() error {
	resp, err := i.httpClient.Get(ytdlpNightlyAPI)
	if err != nil {
		return fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return fmt.Errorf("failed to parse release info: %w", err)
	}

	// Find the correct asset for this platform
	platform := detectPlatform()
	var downloadURL string
	for _, asset := range release.Assets {
		if asset.Name == platform {
			downloadURL = asset.BrowserDownloadURL
			break
		}
	}

	if downloadURL == "" {
		return fmt.Errorf("no asset found for platform: %s", platform)
	}

	fmt.Printf("Downloading yt-dlp %s...\n", release.TagName)
	resp, err = i.httpClient.Get(downloadURL)
	if err != nil {
		return fmt.Errorf("failed to download yt-dlp: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	// Write to a temp file, then swap it in
	binPath := i.BinaryPath()
	tmpPath := binPath + ".tmp"

	out, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}

	if err := os.Chmod(tmpPath, 0755); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to make executable: %w", err)
	}

	if i.IsInstalled() {
		if err := os.Remove(binPath); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to remove old file: %w", err)
		}
	}

	if err := os.Rename(tmpPath, binPath); err != nil {
		return fmt.Errorf("failed to rename file: %w", err)
	}

	i.currentVersion = release.TagName
	fmt.Printf("yt-dlp %s installed successfully\n", release.TagName)

	return nil
}

// EnsureInstalled ensures yt-dlp is installed, downloading if necessary
func (i *Installer) EnsureInstalled() error {
	if i.IsInstalled() {
		return nil
	}

	fmt.Println("yt-dlp not found, downloading...")
	return i.Install()
}

// AutoUpdate checks for and applies updates if available
func (i *Installer) AutoUpdate() error {
	latestVersion, hasUpdate, err := i.CheckForUpdate()
	if err != nil {
		return err
	}

	if !hasUpdate {
		fmt.Println("yt-dlp is up to date")
		return nil
	}

	fmt.Printf("Updating yt-dlp to %s...\n", latestVersion)
	return i.Install()
}

// detectPlatform returns the appropriate yt-dlp binary name for the current platform
func detectPlatform() string {
	switch runtime.GOOS {
	case "windows":
		return "yt-dlp.exe"
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "yt-dlp_linux_aarch64"
		}
		return "yt-dlp_linux"
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return "yt-dlp_macos_arm64"
		}
		return "yt-dlp_macos"
	default:
		return "yt-dlp"
	}
}
