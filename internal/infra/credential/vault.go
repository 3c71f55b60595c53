// Package credential adapts the pure domain/credential validation contract
// to durable storage: the BotInstance row plus an on-disk mirror under
// ./auth/bot_<id>/creds.json. The worker does not read this mirror; its
// whatsmeow device state lives in the database-backed sqlstore.
package credential

import (
	"fmt"
	"os"
	"path/filepath"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/credential"
	"botfleet/pkg/logger"
)

// Vault persists validated credential blobs to disk alongside the
// BotInstance row managed by the caller's repository.
type Vault struct {
	baseDir string
	logger  logger.Logger
}

func NewVault(baseDir string, log logger.Logger) *Vault {
	return &Vault{baseDir: baseDir, logger: log}
}

// Store validates raw against expectedPhone, writes the on-disk mirror, and
// returns the parsed result for the caller to apply to the BotInstance.
func (v *Vault) Store(id bot.BotID, raw []byte, expectedPhone string) (*credential.Parsed, error) {
	parsed, err := credential.Validate(raw, expectedPhone)
	if err != nil {
		return nil, err
	}

	dir := v.botDir(id)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential directory: %w", err)
	}

	path := filepath.Join(dir, "creds.json")
	if err := os.WriteFile(path, parsed.Raw, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write credential mirror: %w", err)
	}

	v.logger.InfoWithFields("credential mirror written", logger.Fields{
		"bot_id": id.String(), "path": path,
	})

	return parsed, nil
}

// Purge removes a bot's on-disk credential mirror entirely.
func (v *Vault) Purge(id bot.BotID) error {
	dir := v.botDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to purge credential mirror: %w", err)
	}
	return nil
}

// Load reads back a bot's on-disk credential mirror, if present.
func (v *Vault) Load(id bot.BotID) ([]byte, error) {
	path := filepath.Join(v.botDir(id), "creds.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read credential mirror: %w", err)
	}
	return data, nil
}

func (v *Vault) botDir(id bot.BotID) string {
	return filepath.Join(v.baseDir, fmt.Sprintf("bot_%s", id.String()))
}
