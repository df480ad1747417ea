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
	"math/rand"
	"os"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/yorkie-team/cotext/pkg/document"
	"github.com/yorkie-team/cotext/pkg/document/time"
	"github.com/yorkie-team/cotext/pkg/logging"
	"github.com/yorkie-team/cotext/pkg/profiling/prometheus"
)

var (
	replicaCount  int
	roundCount    int
	editsPerRound int
	seed          int64
	duplicateRate float64
	printMetrics  bool
	snapshotPath  string
)

var (
	// ErrDiverged is returned when replicas hold different texts after every
	// operation was delivered.
	ErrDiverged = errors.New("replicas diverged")

	words = []string{"a", "bc", "가나", "👍", "\n", "xyz "}
)

// replicaSummary is the state of a replica at the end of a simulation.
type replicaSummary struct {
	Actor      string `json:"actor" yaml:"actor"`
	Len        int    `json:"len" yaml:"len"`
	Lines      int    `json:"lines" yaml:"lines"`
	Fragments  int    `json:"fragments" yaml:"fragments"`
	Tombstones int    `json:"tombstones" yaml:"tombstones"`
	Collected  int    `json:"collected" yaml:"collected"`
	Pending    int    `json:"pending" yaml:"pending"`
	LogSize    int    `json:"logSize" yaml:"logSize"`
	Version    string `json:"version" yaml:"version"`
}

func newSimulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Run concurrent replicas and check that they converge",
		RunE: func(cmd *cobra.Command, args []string) error {
			if replicaCount < 2 {
				return fmt.Errorf("replicas must be at least 2: %d", replicaCount)
			}

			conf, err := loadConfig()
			if err != nil {
				return err
			}
			metrics, err := prometheus.NewMetrics()
			if err != nil {
				return err
			}

			docs := make([]*document.Document, replicaCount)
			for i := range docs {
				actorID := time.NewActorID()
				docs[i], err = document.New(
					actorID,
					document.WithConfig(conf),
					document.WithMetrics(metrics),
					document.WithLogger(logging.NewWithWriter(
						os.Stderr,
						"replica",
						logging.NewField("actor", actorID.String()),
					)),
				)
				if err != nil {
					return err
				}
			}

			r := rand.New(rand.NewSource(seed))
			for round := 0; round < roundCount; round++ {
				payloads, err := editConcurrently(docs, r.Int63())
				if err != nil {
					return fmt.Errorf("round %d: %w", round, err)
				}
				if err := deliver(docs, payloads, r); err != nil {
					return fmt.Errorf("round %d: %w", round, err)
				}
			}

			for _, doc := range docs {
				if _, err := doc.Compact(); err != nil {
					return err
				}
			}

			summaries := make([]replicaSummary, len(docs))
			for i, doc := range docs {
				summaries[i] = summarize(doc)
			}
			if err := printSummaries(cmd, viper.GetString("output"), summaries); err != nil {
				return err
			}
			if printMetrics {
				printMetricFamilies(cmd, metrics)
			}
			if snapshotPath != "" {
				if err := os.WriteFile(snapshotPath, docs[0].Snapshot(), 0600); err != nil {
					return fmt.Errorf("write snapshot: %w", err)
				}
			}

			for _, doc := range docs[1:] {
				if doc.String() != docs[0].String() {
					return ErrDiverged
				}
			}
			return nil
		},
	}
}

// editConcurrently edits every replica on its own goroutine and returns the
// payload each replica flushed.
func editConcurrently(docs []*document.Document, roundSeed int64) ([][]byte, error) {
	payloads := make([][]byte, len(docs))

	g := errgroup.Group{}
	for i, doc := range docs {
		i, doc := i, doc
		r := rand.New(rand.NewSource(roundSeed + int64(i)))
		g.Go(func() error {
			for n := 0; n < editsPerRound; n++ {
				if err := randomEdit(doc, r); err != nil {
					return err
				}
			}

			payload, err := doc.FlushOperations()
			if err != nil {
				return err
			}
			payloads[i] = payload
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return payloads, nil
}

// deliver sends every payload to every other replica in random order. Some
// payloads are delivered twice.
func deliver(docs []*document.Document, payloads [][]byte, r *rand.Rand) error {
	for i, doc := range docs {
		var inbox [][]byte
		for j, payload := range payloads {
			if j == i || payload == nil {
				continue
			}
			inbox = append(inbox, payload)
			if r.Float64() < duplicateRate {
				inbox = append(inbox, payload)
			}
		}
		r.Shuffle(len(inbox), func(a, b int) {
			inbox[a], inbox[b] = inbox[b], inbox[a]
		})

		for _, payload := range inbox {
			if err := doc.ApplyPayload(payload); err != nil {
				return err
			}
		}
	}

	return nil
}

func randomEdit(doc *document.Document, r *rand.Rand) error {
	boundaries := charBoundaries(doc.String())
	length := boundaries[len(boundaries)-1]

	if length > 0 && r.Intn(3) == 0 {
		from := r.Intn(len(boundaries) - 1)
		to := from + 1 + r.Intn(min(3, len(boundaries)-1-from))
		_, err := doc.ApplyLocalEdit(boundaries[from], boundaries[to], "")
		return err
	}

	offset := boundaries[r.Intn(len(boundaries))]
	_, err := doc.ApplyLocalEdit(offset, offset, words[r.Intn(len(words))])
	return err
}

// charBoundaries returns the byte offsets at which a character starts,
// followed by the length of s.
func charBoundaries(s string) []int {
	boundaries := make([]int, 0, len(s)+1)
	for offset := range s {
		boundaries = append(boundaries, offset)
	}
	return append(boundaries, len(s))
}

func summarize(doc *document.Document) replicaSummary {
	stats := doc.Stats()
	return replicaSummary{
		Actor:      doc.ActorID().String(),
		Len:        utf8.RuneCountInString(doc.String()),
		Lines:      stats.Lines,
		Fragments:  stats.Fragments,
		Tombstones: stats.Tombstones,
		Collected:  stats.Collected,
		Pending:    stats.Pending,
		LogSize:    stats.LogSize,
		Version:    stats.Version.Marshal(),
	}
}

func printSummaries(cmd *cobra.Command, output string, summaries []replicaSummary) error {
	switch output {
	case "":
		tw := table.NewWriter()
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateColumns = false
		tw.Style().Options.SeparateFooter = false
		tw.Style().Options.SeparateHeader = false
		tw.Style().Options.SeparateRows = false
		tw.AppendHeader(table.Row{
			"ACTOR",
			"CHARS",
			"LINES",
			"FRAGMENTS",
			"TOMBSTONES",
			"COLLECTED",
			"PENDING",
			"LOG",
		})
		for _, summary := range summaries {
			tw.AppendRow(table.Row{
				summary.Actor,
				summary.Len,
				summary.Lines,
				summary.Fragments,
				summary.Tombstones,
				summary.Collected,
				summary.Pending,
				summary.LogSize,
			})
		}
		cmd.Printf("%s\n", tw.Render())
	case "json":
		jsonOutput, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal JSON: %w", err)
		}
		cmd.Println(string(jsonOutput))
	case "yaml":
		yamlOutput, err := yaml.Marshal(summaries)
		if err != nil {
			return fmt.Errorf("marshal YAML: %w", err)
		}
		cmd.Println(string(yamlOutput))
	default:
		return fmt.Errorf("unknown output format: %s", output)
	}

	return nil
}

func printMetricFamilies(cmd *cobra.Command, metrics *prometheus.Metrics) {
	families, err := metrics.Registry().Gather()
	if err != nil {
		cmd.PrintErrf("gather metrics: %v\n", err)
		return
	}

	tw := table.NewWriter()
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateHeader = false
	tw.AppendHeader(table.Row{"METRIC", "VALUE"})
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			if metric.GetCounter() == nil {
				continue
			}
			name := family.GetName()
			for _, label := range metric.GetLabel() {
				name += fmt.Sprintf(" %s=%s", label.GetName(), label.GetValue())
			}
			tw.AppendRow(table.Row{name, metric.GetCounter().GetValue()})
		}
	}
	cmd.Printf("%s\n", tw.Render())
}

func init() {
	cmd := newSimulateCmd()
	cmd.Flags().IntVar(
		&replicaCount,
		"replicas",
		3,
		"The number of replicas",
	)
	cmd.Flags().IntVar(
		&roundCount,
		"rounds",
		10,
		"The number of rounds of concurrent edits",
	)
	cmd.Flags().IntVar(
		&editsPerRound,
		"edits",
		20,
		"The number of edits each replica makes per round",
	)
	cmd.Flags().Int64Var(
		&seed,
		"seed",
		1,
		"The seed of the random edits",
	)
	cmd.Flags().Float64Var(
		&duplicateRate,
		"duplicates",
		0.1,
		"The probability that a payload is delivered twice",
	)
	cmd.Flags().BoolVar(
		&printMetrics,
		"metrics",
		false,
		"Print the counters collected during the simulation",
	)
	cmd.Flags().StringVar(
		&snapshotPath,
		"snapshot",
		"",
		"Write the snapshot of the first replica to this path",
	)
	rootCmd.AddCommand(cmd)
}
