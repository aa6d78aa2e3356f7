// Copyright (c) 2025 BVK Chaitanya

// Package backup reads and writes open order snapshots as pretty-printed
// JSON files.
package backup

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bvk/refresher/exchange"
)

// TimestampLayout is the UTC timestamp format used in the snapshot file names.
const TimestampLayout = "20060102150405Z"

// Writer writes snapshot files into a directory.
type Writer struct {
	dir    string
	format string
}

// CheckFormat returns an error if the file name format doesn't have exactly
// one %s placeholder for the timestamp.
func CheckFormat(format string) error {
	if n := strings.Count(format, "%"); n != 1 || !strings.Contains(format, "%s") {
		return fmt.Errorf("backup file format %q must have exactly one %%s placeholder: %w", format, os.ErrInvalid)
	}
	return nil
}

// FileName returns the snapshot file name for the given time.
func FileName(format string, at time.Time) string {
	return fmt.Sprintf(format, at.UTC().Format(TimestampLayout))
}

// NewWriter creates a snapshot writer. Relative file name formats are
// resolved under the input directory.
func NewWriter(dir, format string) (*Writer, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}
	return &Writer{dir: dir, format: format}, nil
}

// WriteBackup writes the orders into a new snapshot file and returns the file
// path. Existing files are never overwritten.
func (w *Writer) WriteBackup(orders []*exchange.Order, at time.Time) (string, error) {
	fpath := FileName(w.format, at)
	if !filepath.IsAbs(fpath) {
		fpath = filepath.Join(w.dir, fpath)
	}
	if err := os.MkdirAll(filepath.Dir(fpath), 0700); err != nil {
		return "", fmt.Errorf("could not create backup directory: %w", err)
	}
	if err := Write(fpath, orders); err != nil {
		return "", err
	}
	return fpath, nil
}

// Write writes the orders into a new file at the given path.
func Write(fpath string, orders []*exchange.Order) error {
	if orders == nil {
		orders = []*exchange.Order{}
	}
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal orders to json: %w", err)
	}

	fp, err := os.OpenFile(fpath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, os.FileMode(0600))
	if err != nil {
		return fmt.Errorf("could not create file %q: %w", fpath, err)
	}
	defer fp.Close()

	bw := bufio.NewWriter(fp)
	if _, err := bw.Write(data); err != nil {
		return fmt.Errorf("could not write to file %q: %w", fpath, err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("could not flush the bufio writer: %w", err)
	}
	if err := fp.Sync(); err != nil {
		return fmt.Errorf("could not sync the output file: %w", err)
	}
	return fp.Close()
}

// Read loads the orders from a snapshot file.
func Read(fpath string) ([]*exchange.Order, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, fmt.Errorf("could not read file %q: %w", fpath, err)
	}
	var orders []*exchange.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("could not parse orders in %q: %w", fpath, err)
	}
	for i, order := range orders {
		if order == nil {
			return nil, fmt.Errorf("entry %d in %q is null: %w", i, fpath, os.ErrInvalid)
		}
	}
	return orders, nil
}
