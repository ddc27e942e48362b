// Command readerbot serves the e-book reader bot.
package main

import (
	"fmt"
	"os"

	"github.com/m3rciful/readerbot/core/cmd"
	"github.com/m3rciful/readerbot/internal/config"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFile:           ".env",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			cfg, err := config.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: newApp,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
