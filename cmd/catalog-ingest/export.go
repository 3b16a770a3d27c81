package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alorle/catalog-ingest/internal/application"
)

const combinedPlaylist = "all.m3u"

// exportPlaylists writes one playlist per successfully synced provider plus a
// combined playlist of everything stored. Files are replaced atomically.
func exportPlaylists(ctx context.Context, playlists *application.PlaylistService, dir string, results []application.SyncResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export dir: %w", err)
	}

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		content, err := playlists.GenerateM3U(ctx, r.Provider)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := writeFileAtomic(filepath.Join(dir, playlistFileName(r.Provider)), content); err != nil {
			errs = append(errs, err)
		}
	}

	content, err := playlists.GenerateCombinedM3U(ctx)
	if err != nil {
		errs = append(errs, err)
	} else if err := writeFileAtomic(filepath.Join(dir, combinedPlaylist), content); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// playlistFileName maps a provider name to a safe file name.
func playlistFileName(provider string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(provider))
	name = strings.Trim(name, ".")
	if name == "" {
		name = "provider"
	}
	return name + ".m3u"
}

func writeFileAtomic(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
