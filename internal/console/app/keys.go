package app

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/console/internal/console/session"
	"github.com/aussiebroadwan/console/pkg/cryptox"
)

// InitSealer builds the sealer for the persisted session record.
//
// Key sources, in order:
//   - CONSOLE_MASTER_KEY: the key material itself.
//   - CONSOLE_MASTER_KEY_PATH: a file holding the key material.
//   - neither: a random key for this process only. A stored session then
//     cannot be restored after a restart and the operator signs in again.
func InitSealer(cfg Config, logger *slog.Logger) (*cryptox.Sealer, error) {
	material := []byte(cfg.MasterKey)

	if len(material) == 0 && cfg.MasterKeyPath != "" {
		raw, err := os.ReadFile(cfg.MasterKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read master key file: %w", err)
		}
		material = bytes.TrimSpace(raw)
		logger.Info("master key loaded from file", "path", cfg.MasterKeyPath)
	}

	if len(material) == 0 {
		logger.Warn("no master key configured, stored sessions will not survive a restart")
	}

	sealer, err := cryptox.NewSealer(material, session.SealInfo)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise session sealer: %w", err)
	}
	return sealer, nil
}
