package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumManifest is the on-disk .checksums format.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// ComputeHash computes the BLAKE3 hash of a file.
func ComputeHash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// WriteChecksum computes the config file's hash and writes the .checksums
// manifest beside it. Run after any deliberate config edit.
func WriteChecksum(configPath string) error {
	hash, err := ComputeHash(configPath)
	if err != nil {
		return fmt.Errorf("failed to hash %s: %w", configPath, err)
	}

	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      map[string]string{filepath.Base(configPath): hash},
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("failed to marshal checksums: %w", err)
	}

	// Restrictive permissions: the manifest is what tamper detection trusts.
	path := checksumPath(configPath)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}
	return nil
}

// VerifyConfigChecksum verifies the config file against its .checksums
// manifest.
func VerifyConfigChecksum(configPath string) error {
	data, err := os.ReadFile(checksumPath(configPath))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("checksums file not found (run 'sigil config lock')")
		}
		return fmt.Errorf("failed to read checksums: %w", err)
	}

	var manifest ChecksumManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return fmt.Errorf("failed to parse checksums: %w", err)
	}
	if manifest.Version != 1 {
		return fmt.Errorf("unsupported checksums version: %d", manifest.Version)
	}

	name := filepath.Base(configPath)
	expected, ok := manifest.Hashes[name]
	if !ok {
		return fmt.Errorf("no checksum recorded for %s", name)
	}

	actual, err := ComputeHash(configPath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}
	if actual != expected {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s", name, expected, actual)
	}
	return nil
}

func checksumPath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), ".checksums")
}
