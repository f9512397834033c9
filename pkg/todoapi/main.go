package todoapi

import (
	"context"
	"fmt"
	"io"
)

// Main runs the command described by args, writing command output to stdout.
func Main(ctx context.Context, args []string, stdout io.Writer) error {
	cmd, config, err := Parse(args)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	switch c := cmd.(type) {
	case *ConfigCommand:
		if err := c.Write(stdout, config); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}
	case *RunCommand:
		app, err := New(config)
		if err != nil {
			return fmt.Errorf("failed to create application: %w", err)
		}
		defer app.Close()

		if err := app.Run(ctx, c); err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	default:
		return fmt.Errorf("unknown command type: %T", cmd)
	}

	return nil
}
