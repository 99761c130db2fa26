package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// seedFromFlag resolves the --seed flag, generating a crypto seed when the
// caller passed none.
func seedFromFlag(cmd interface{ Changed(string) bool }, flag string, value int64, generate func() (int64, error)) (int64, error) {
	if cmd.Changed(flag) {
		return value, nil
	}
	seed, err := generate()
	if err != nil {
		return 0, fmt.Errorf("generate seed: %w", err)
	}
	return seed, nil
}
