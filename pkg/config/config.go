// Copyright 2023 Paolo Fabio Zaino
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config contains the job-level configuration file parsing
// logic: cooldown store backend and TTL override, pattern-set
// location, fetch tunables, and the debug level.
package config

import (
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the shape of the job's own configuration file: only what a
// doublefetch job tunes. There is no Selenium, crawler-worker, or
// API-server section here, because this subsystem runs neither.
type Config struct {
	Patterns struct {
		Glob       string `yaml:"glob"`
		SchemaPath string `yaml:"schema_path"`
	} `yaml:"patterns"`
	Cooldown struct {
		Backend string `yaml:"backend"` // "memory" or "postgres"
		DSN     string `yaml:"dsn"`
		TTLSecs int    `yaml:"ttl_secs"`
	} `yaml:"cooldown"`
	Fetch struct {
		TimeoutSecs        int `yaml:"timeout_secs"`
		ConnectTimeoutSecs int `yaml:"connect_timeout_secs"`
		Retries            int `yaml:"retries"`
	} `yaml:"fetch"`
	Batch struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"batch"`
	OS         string `yaml:"os"`
	DebugLevel int    `yaml:"debug_level"`
}

// fileExists checks if a file exists at the given filename. It returns
// true if the file exists and is not a directory, false otherwise.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// interpolateEnvVars replaces occurrences of `${VAR}` or `$VAR` in the
// input string with the value of the VAR environment variable. Used so
// a committed config file can name a DSN without a plaintext password
// in it.
func interpolateEnvVars(input string) string {
	envVarPattern := regexp.MustCompile(`\$\{?(\w+)\}?`)
	return envVarPattern.ReplaceAllStringFunc(input, func(varName string) string {
		trimmed := strings.TrimSuffix(strings.TrimPrefix(varName, "${"), "}")
		trimmed = strings.TrimPrefix(trimmed, "$")
		return os.Getenv(trimmed)
	})
}

func getConfigFile(confName string) (Config, error) {
	if !fileExists(confName) {
		return Config{}, fmt.Errorf("file does not exist: %s", confName)
	}

	data, err := os.ReadFile(confName)
	if err != nil {
		return Config{}, err
	}

	interpolated := interpolateEnvVars(string(data))

	var config Config
	if interpolated != "" && interpolated != "\n" && interpolated != "\r\n" {
		err = yaml.Unmarshal([]byte(interpolated), &config)
	}
	return config, err
}

// LoadConfig loads a job configuration file and fills in defaults for
// anything left unset.
func LoadConfig(confName string) (Config, error) {
	config, err := getConfigFile(confName)
	if err != nil {
		return config, err
	}

	config.OS = runtime.GOOS

	if config.Patterns.Glob == "" {
		config.Patterns.Glob = "patterns/*.yaml"
	}
	if config.Cooldown.Backend == "" {
		config.Cooldown.Backend = "memory"
	}
	if config.Cooldown.TTLSecs == 0 {
		config.Cooldown.TTLSecs = 24 * 60 * 60
	}
	if config.Fetch.TimeoutSecs == 0 {
		config.Fetch.TimeoutSecs = 30
	}
	if config.Fetch.ConnectTimeoutSecs == 0 {
		config.Fetch.ConnectTimeoutSecs = 10
	}
	if config.Fetch.Retries == 0 {
		config.Fetch.Retries = 2
	}
	if config.Batch.Concurrency == 0 {
		config.Batch.Concurrency = 10
	}

	return config, nil
}

// IsEmpty reports whether config is the zero value.
func IsEmpty(config Config) bool {
	return config.Patterns.Glob == "" &&
		config.Cooldown.Backend == "" &&
		config.Fetch.TimeoutSecs == 0 &&
		config.DebugLevel == 0
}

// CooldownTTL is the cooldown TTL override as a time.Duration.
func (c Config) CooldownTTL() time.Duration {
	return time.Duration(c.Cooldown.TTLSecs) * time.Second
}

// FetchTimeout is the fetch total timeout as a time.Duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSecs) * time.Second
}

// FetchConnectTimeout is the fetch connect timeout as a time.Duration.
func (c Config) FetchConnectTimeout() time.Duration {
	return time.Duration(c.Fetch.ConnectTimeoutSecs) * time.Second
}
