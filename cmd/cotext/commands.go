/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is the entry point of the cotext CLI.
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yorkie-team/cotext/pkg/document"
	"github.com/yorkie-team/cotext/pkg/logging"
)

var (
	flagConfPath string
	flagLogLevel string
	flagOutput   string
)

var rootCmd = &cobra.Command{
	Use:               "cotext",
	Short:             "Replicated plain text based on CRDT",
	SilenceUsage:      true,
	PersistentPreRunE: preload,
}

// Run executes CLI.
func Run() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}

	return 0
}

// preload binds the persistent flags to the environment. Flags given on the
// command line take precedence over COTEXT_* variables.
func preload(cmd *cobra.Command, _ []string) error {
	viper.SetEnvPrefix("cotext")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	if err := logging.SetLogLevel(viper.GetString("log-level")); err != nil {
		return err
	}
	return nil
}

// loadConfig returns the document configuration. If a config file is given,
// it replaces the defaults.
func loadConfig() (*document.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		return document.NewConfig(), nil
	}

	conf, err := document.NewConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	return conf, nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&flagConfPath,
		"config",
		"c",
		"",
		"Config path",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagLogLevel,
		"log-level",
		"l",
		"warn",
		"Log level: debug, info, warn, error, panic, fatal",
	)
	rootCmd.PersistentFlags().StringVarP(
		&flagOutput,
		"output",
		"o",
		"",
		"One of 'yaml' or 'json'.",
	)
}
