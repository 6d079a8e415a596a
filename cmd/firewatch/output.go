package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// resolveFormat returns the effective output format for cmd: the --format
// flag if set, else the config's output.default_format, defaulting to
// "human" (spec.md §4.10).
func resolveFormat(cmd *cobra.Command, cfg string) string {
	if f, _ := cmd.Flags().GetString("format"); f != "" {
		return f
	}
	if cfg != "" {
		return cfg
	}
	return "human"
}

// writeRows renders rows (one JSON object or human line per item) in the
// requested format. humanLine formats a single row for "human" output;
// json/jsonl marshal the whole slice or one object per line respectively.
func writeRows[T any](w io.Writer, format string, rows []T, humanLine func(T) string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "jsonl":
		enc := json.NewEncoder(w)
		for _, row := range rows {
			if err := enc.Encode(row); err != nil {
				return err
			}
		}
		return nil
	default:
		if len(rows) == 0 {
			fmt.Fprintln(w, "(no results)")
			return nil
		}
		for _, row := range rows {
			fmt.Fprintln(w, humanLine(row))
		}
		return nil
	}
}

// writeOne renders a single value in the requested format; "human" falls
// back to humanText since there's no natural line-per-item shape.
func writeOne(w io.Writer, format string, v any, humanText func() string) error {
	switch format {
	case "json", "jsonl":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		fmt.Fprintln(w, humanText())
		return nil
	}
}
