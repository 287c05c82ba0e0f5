package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// config is the ambient bootstrap configuration for the rrworker binary:
// task queue names to stand up, an optional codec override, and logger
// formatting, loaded the way the teacher's cmd/ entrypoints do — an
// optional YAML file, overridden by flags.
type config struct {
	TaskQueues []string `yaml:"taskQueues"`
	Codec      string   `yaml:"codec"`
	LogFormat  string   `yaml:"logFormat"`
	LogDebug   bool     `yaml:"logDebug"`
}

func defaultConfig() config {
	return config{
		TaskQueues: []string{"default"},
		LogFormat:  "text",
	}
}

// loadConfig parses args, reads the YAML file named by -config if one is
// given (a file that cannot be read or parsed is an error), then applies
// the remaining flag overrides on top, mirroring the teacher's flag-based
// main.go bootstrap.
func loadConfig(args []string) (config, error) {
	cfg := defaultConfig()

	fs := flag.NewFlagSet("rrworker", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to an optional YAML config file")
	codecOverride := fs.String("codec", "", "override the wire codec (json or protobuf)")
	logFormat := fs.String("log-format", "", "override log output format")
	logDebug := fs.Bool("log-debug", false, "enable debug-level logging")

	if err := fs.Parse(args); err != nil {
		return config{}, fmt.Errorf("rrworker: parse flags: %w", err)
	}

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return config{}, fmt.Errorf("rrworker: read config %q: %w", *configPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return config{}, fmt.Errorf("rrworker: parse config %q: %w", *configPath, err)
		}
	}

	if *codecOverride != "" {
		cfg.Codec = *codecOverride
	}
	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}
	if *logDebug {
		cfg.LogDebug = true
	}

	return cfg, nil
}
