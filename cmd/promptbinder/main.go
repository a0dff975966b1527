package main

import (
	"log"

	corecmd "github.com/m3rciful/promptbinder/core/cmd"
	coreconfig "github.com/m3rciful/promptbinder/core/config"
	"github.com/m3rciful/promptbinder/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return cfg, nil
		},
		Bootstrap: app.Bootstrap,
	})
	if err != nil {
		log.Fatal(err)
	}
}
