package todoapi

import (
	"io"
	"net"

	"github.com/BurntSushi/toml"
)

type Command interface {
	// Name returns the sub-command name it was parsed from.
	Name() string
}

type RunCommand struct {
	// Listening, if set, is called with the bound address once the server
	// accepts connections. Useful with port 0.
	Listening func(addr net.Addr)
}

func (c *RunCommand) Name() string {
	return "run"
}

// ConfigCommand prints the effective configuration.
type ConfigCommand struct{}

func (c *ConfigCommand) Name() string {
	return "config"
}

// Write encodes config as TOML. The output can be fed back through -config.
func (c *ConfigCommand) Write(w io.Writer, config *Config) error {
	return toml.NewEncoder(w).Encode(config)
}
