package dataset

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/opensource-finance/harrier/internal/domain"
)

// LoadFile reads a transaction file and builds a dataset of the declared
// type. The file handle is released on every exit path, including parse
// failure.
func LoadFile(path string, dtype domain.DatasetType) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Load(f, dtype)
}

// Load reads one record per line from r and builds a dataset.
func Load(r io.Reader, dtype domain.DatasetType) (*Dataset, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return Build(lines, dtype)
}
