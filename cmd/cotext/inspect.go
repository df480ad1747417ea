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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/cotext/api/converter"
	"github.com/yorkie-team/cotext/pkg/document/crdt"
)

var showFragments bool

// snapshotInfo is the summary of a snapshot file.
type snapshotInfo struct {
	Version    string         `json:"version" yaml:"version"`
	Bytes      int            `json:"bytes" yaml:"bytes"`
	Lines      int            `json:"lines" yaml:"lines"`
	Fragments  int            `json:"fragments" yaml:"fragments"`
	Tombstones int            `json:"tombstones" yaml:"tombstones"`
	Collected  int            `json:"collected" yaml:"collected"`
	Items      []fragmentInfo `json:"items,omitempty" yaml:"items,omitempty"`
}

type fragmentInfo struct {
	ID        string `json:"id" yaml:"id"`
	Len       int    `json:"len" yaml:"len"`
	RemovedBy int    `json:"removedBy" yaml:"removedBy"`
	Content   string `json:"content" yaml:"content"`
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [snapshot path]",
		Short: "Print the summary of a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("snapshot path is required")
			}

			b, err := os.ReadFile(filepath.Clean(args[0]))
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}
			snapshot, err := converter.BytesToSnapshot(b)
			if err != nil {
				return err
			}

			conf, err := loadConfig()
			if err != nil {
				return err
			}
			text, err := crdt.NewTextFromSnapshot(snapshot, conf.MaxLeafBytes)
			if err != nil {
				return err
			}

			summary := text.Summary()
			info := snapshotInfo{
				Version:    snapshot.Version.Marshal(),
				Bytes:      text.Len(),
				Lines:      text.LineCount(),
				Fragments:  summary.Fragments,
				Tombstones: summary.Tombstones,
				Collected:  text.CollectedLen(),
			}
			if showFragments {
				for _, f := range text.Fragments() {
					info.Items = append(info.Items, fragmentInfo{
						ID:        f.ID().ToTestString(),
						Len:       f.Len(),
						RemovedBy: len(f.RemovedBy()),
						Content:   f.Content(),
					})
				}
			}

			return printSnapshotInfo(cmd, viper.GetString("output"), info)
		},
	}
}

func printSnapshotInfo(cmd *cobra.Command, output string, info snapshotInfo) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{"BYTES", "LINES", "FRAGMENTS", "TOMBSTONES", "COLLECTED", "VERSION"})
		tw.AppendRow(table.Row{
			info.Bytes,
			info.Lines,
			info.Fragments,
			info.Tombstones,
			info.Collected,
			info.Version,
		})
		cmd.Printf("%s\n", tw.Render())

		if len(info.Items) == 0 {
			return nil
		}
		tw = table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateHeader = false
		tw.AppendHeader(table.Row{"ID", "LEN", "REMOVED BY", "CONTENT"})
		for _, item := range info.Items {
			tw.AppendRow(table.Row{item.ID, item.Len, item.RemovedBy, strconv.Quote(item.Content)})
		}
		cmd.Printf("\n%s\n", tw.Render())
	case "json":
		jsonOutput, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(info)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	return nil
}

func init() {
	cmd := newInspectCmd()
	cmd.Flags().BoolVar(
		&showFragments,
		"fragments",
		false,
		"Print every fragment of the snapshot",
	)
	rootCmd.AddCommand(cmd)
}
