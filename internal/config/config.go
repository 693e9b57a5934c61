// Copyright 2025 Blink Labs Software
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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "rollcall.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// Mail backend names accepted in MailBackend.
const (
	MailBackendConsole  = "console"
	MailBackendSendgrid = "sendgrid"
)

type Config struct {
	DatabasePath     string `yaml:"databasePath"                                   split_words:"true"`
	OwnerOrgCode     string `yaml:"ownerOrgCode"                                   split_words:"true"`
	MaskSalt         string `yaml:"maskSalt"         envconfig:"ROLLCALL_MASK_SALT"`
	MailBackend      string `yaml:"mailBackend"                                    split_words:"true"`
	MailFromName     string `yaml:"mailFromName"                                   split_words:"true"`
	MailFromAddress  string `yaml:"mailFromAddress"                                split_words:"true"`
	SendgridApiKey   string `yaml:"sendgridApiKey"   envconfig:"SENDGRID_API_KEY"`
	ImmediateCeiling int64  `yaml:"immediateCeiling"                               split_words:"true"`
	MetricsPort      uint   `yaml:"metricsPort"                                    split_words:"true"`
}

var globalConfig = &Config{
	DatabasePath: ".rollcall",
	OwnerOrgCode: "gacco",
	MailBackend:  MailBackendConsole,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.rollcall/rollcall.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".rollcall", "rollcall.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/rollcall/rollcall.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/rollcall/rollcall.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, globalConfig); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Load config values from environment variables
	// We use "dummy" as the app name here to (mostly) prevent picking up env
	// vars that we hadn't explicitly specified in annotations above
	err := envconfig.Process("dummy", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	return globalConfig, nil
}

// GetConfig returns the global config instance
func GetConfig() *Config {
	return globalConfig
}
