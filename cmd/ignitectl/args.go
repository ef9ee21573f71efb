package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"
)

func idArg(c *cli.Context, what string) (int64, error) {
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("expected a numeric %s id, got %q", what, raw)
	}
	return id, nil
}

// optionalID is nil when the flag was not set.
func optionalID(c *cli.Context, name string) *int64 {
	if !c.IsSet(name) {
		return nil
	}
	v := c.Int64(name)
	return &v
}

func writeFile(c *cli.Context, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}
