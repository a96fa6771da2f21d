package promotion

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sweet-heaven/internal/model"
)

const cancelCheckInterval = 1_000

// decodeSnapshot reads gzipped JSON lines from r. Blank lines are skipped.
func decodeSnapshot(ctx context.Context, r io.Reader) ([]model.Promotion, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	promotions := []model.Promotion{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var p model.Promotion
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			return nil, fmt.Errorf("invalid promotion on line %d: %w", lineNo, err)
		}
		promotions = append(promotions, p)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return promotions, nil
}

// WriteSnapshot writes promotions to w as gzipped JSON lines.
func WriteSnapshot(w io.Writer, promotions []model.Promotion) error {
	gzipWriter := gzip.NewWriter(w)
	encoder := json.NewEncoder(gzipWriter)
	for _, p := range promotions {
		if err := encoder.Encode(p); err != nil {
			gzipWriter.Close()
			return fmt.Errorf("failed to encode promotion %d: %w", p.ID, err)
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	return nil
}
