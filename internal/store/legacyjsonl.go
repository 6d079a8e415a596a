package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/outfitter-dev/firewatch/internal/model"
)

// ReadLegacyEntries reads every regular file directly under dir as JSONL,
// whatever its extension (the
// pre-SQLite per-repo JSONL cache layout, spec.md §6) and returns the
// decoded entries. It is an opt-in one-time import path: nothing in sync
// or query calls this automatically.
func ReadLegacyEntries(dir string) ([]model.Entry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read legacy dir %s: %w", dir, err)
	}

	var out []model.Entry
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		path := dir + "/" + f.Name()
		entries, err := readLegacyFile(path)
		if err != nil {
			return nil, fmt.Errorf("read legacy file %s: %w", path, err)
		}
		out = append(out, entries...)
	}
	return out, nil
}

func readLegacyFile(path string) ([]model.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []model.Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("unmarshal line: %w", err)
		}
		out = append(out, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return out, nil
}
