// Package update replaces the running envdash binary with the latest
// GitHub release.
package update

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/Masterminds/semver/v3"
	selfupdate "github.com/creativeprojects/go-selfupdate"
)

// RepoSlug is the GitHub repository releases are fetched from.
const RepoSlug = "envdash/envdash"

// IsDisabled reports whether updates are disabled via ENVDASH_UPDATE_DISABLED.
func IsDisabled() bool {
	v := os.Getenv("ENVDASH_UPDATE_DISABLED")
	return v == "1" || strings.EqualFold(v, "true")
}

// Info is the result of a version check.
type Info struct {
	CurrentVersion  string `json:"currentVersion"`
	LatestVersion   string `json:"latestVersion"`
	UpdateAvailable bool   `json:"updateAvailable"`
	ReleaseURL      string `json:"releaseURL,omitempty"`

	Release *selfupdate.Release `json:"-"`
}

// Updater checks for and applies releases.
type Updater struct {
	updater *selfupdate.Updater
	slug    selfupdate.RepositorySlug
}

// NewUpdater creates an Updater backed by GitHub Releases with checksum
// validation.
func NewUpdater() (*Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{
		APIToken: os.Getenv("GITHUB_TOKEN"),
	})
	if err != nil {
		return nil, fmt.Errorf("create github source: %w", err)
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:    source,
		Validator: &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return &Updater{updater: updater, slug: selfupdate.ParseSlug(RepoSlug)}, nil
}

// CheckLatest reports whether a release newer than currentVersion exists.
// An unparseable current version (a dev build) always counts as outdated.
func (u *Updater) CheckLatest(ctx context.Context, currentVersion string) (*Info, error) {
	latest, found, err := u.updater.DetectLatest(ctx, u.slug)
	if err != nil {
		return nil, fmt.Errorf("detect latest release: %w", err)
	}

	info := &Info{CurrentVersion: currentVersion}
	if !found {
		info.LatestVersion = currentVersion
		return info, nil
	}
	info.LatestVersion = latest.Version()
	info.ReleaseURL = latest.URL
	info.Release = latest

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		info.UpdateAvailable = true
		return info, nil
	}
	latestVersion, err := semver.NewVersion(latest.Version())
	if err != nil {
		return info, nil
	}
	info.UpdateAvailable = latestVersion.GreaterThan(current)
	return info, nil
}

// Apply installs release over the running executable.
func (u *Updater) Apply(ctx context.Context, release *selfupdate.Release) error {
	execPath, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("find executable path: %w", err)
	}
	if err := u.updater.UpdateTo(ctx, release, execPath); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}
	return nil
}
