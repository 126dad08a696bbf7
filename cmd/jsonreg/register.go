package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register [json]",
	Short: "Register a single JSON value and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer r.Close()

		id, err := r.RegisterObject(cmd.Context(), []byte(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	},
}

var registerBatchCmd = &cobra.Command{
	Use:   "register-batch [file]",
	Short: "Register a JSON array of values (or newline-delimited values with --ndjson), one id per line",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ndjson, _ := cmd.Flags().GetBool("ndjson")

		var src io.Reader = os.Stdin
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			src = f
		}

		values, err := readBatchValues(src, ndjson)
		if err != nil {
			return err
		}

		r, err := openRegistry(cmd.Context())
		if err != nil {
			return err
		}
		defer r.Close()

		ids, err := r.RegisterBatchObjects(cmd.Context(), values)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(os.Stdout)
		defer w.Flush()
		for _, id := range ids {
			fmt.Fprintln(w, id)
		}

		slog.Debug("register-batch complete",
			"count", len(ids),
			"cache_hit_rate", r.CacheHitRate(),
		)
		return nil
	},
}

func init() {
	registerBatchCmd.Flags().Bool("ndjson", false, "read one JSON value per line instead of a single JSON array")
}

// readBatchValues reads either one JSON array of values, or (with
// ndjson) one JSON value per line, and returns each value's raw bytes.
func readBatchValues(src io.Reader, ndjson bool) ([][]byte, error) {
	if !ndjson {
		var raws []json.RawMessage
		if err := json.NewDecoder(src).Decode(&raws); err != nil {
			return nil, fmt.Errorf("decode input array: %w", err)
		}
		values := make([][]byte, len(raws))
		for i, r := range raws {
			values[i] = []byte(r)
		}
		return values, nil
	}

	var values [][]byte
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		values = append(values, append([]byte(nil), line...))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ndjson input: %w", err)
	}
	return values, nil
}
