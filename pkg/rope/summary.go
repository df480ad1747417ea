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

package rope

// TextSummary aggregates the metrics of a run of text. Line lengths are in
// bytes and do not include the line feed.
type TextSummary struct {
	Bytes int
	Chars int
	UTF16 int

	// Lines is the number of line feeds.
	Lines int

	FirstLineLen int
	LastLineLen  int
	LongestLine  int
}

// Summarize computes the summary of the given text.
func Summarize(text string) TextSummary {
	s := TextSummary{Bytes: len(text)}

	lineStart := 0
	for i, r := range text {
		s.Chars++
		if r >= 0x10000 {
			s.UTF16 += 2
		} else {
			s.UTF16++
		}

		if r == '\n' {
			lineLen := i - lineStart
			if s.Lines == 0 {
				s.FirstLineLen = lineLen
			}
			s.LongestLine = max(s.LongestLine, lineLen)
			s.Lines++
			lineStart = i + 1
		}
	}

	s.LastLineLen = len(text) - lineStart
	if s.Lines == 0 {
		s.FirstLineLen = s.LastLineLen
	}
	s.LongestLine = max(s.LongestLine, s.LastLineLen)
	return s
}

// Zero returns the summary of the empty text.
func (s TextSummary) Zero() TextSummary {
	return TextSummary{}
}

// Add returns the summary of the text summarized by s followed by the text
// summarized by other.
func (s TextSummary) Add(other TextSummary) TextSummary {
	result := TextSummary{
		Bytes: s.Bytes + other.Bytes,
		Chars: s.Chars + other.Chars,
		UTF16: s.UTF16 + other.UTF16,
		Lines: s.Lines + other.Lines,
	}

	if s.Lines == 0 {
		result.FirstLineLen = s.FirstLineLen + other.FirstLineLen
	} else {
		result.FirstLineLen = s.FirstLineLen
	}

	if other.Lines == 0 {
		result.LastLineLen = s.LastLineLen + other.LastLineLen
	} else {
		result.LastLineLen = other.LastLineLen
	}

	result.LongestLine = max(s.LongestLine, other.LongestLine, s.LastLineLen+other.FirstLineLen)
	return result
}

func byteDim(s TextSummary) int { return s.Bytes }

func charDim(s TextSummary) int { return s.Chars }

func lineDim(s TextSummary) int { return s.Lines }
