package promotion

import (
	"context"
	"fmt"
	"os"

	"sweet-heaven/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader reads promotion snapshots from the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based snapshot loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promotion-loader").Logger(),
	}
}

func (l *fileLoader) Load(ctx context.Context, path string) ([]model.Promotion, error) {
	l.logger.Info().Str("file", path).Msg("loading promotion snapshot")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open promotion snapshot")
		return nil, fmt.Errorf("failed to open promotion snapshot %s: %w", path, err)
	}
	defer file.Close()

	promotions, err := decodeSnapshot(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read promotion snapshot")
		return nil, fmt.Errorf("promotion snapshot %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("promotions_loaded", len(promotions)).
		Msg("promotion snapshot loaded")

	return promotions, nil
}
