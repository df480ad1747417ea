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

import "github.com/yorkie-team/cotext/pkg/sumtree"

// Chunks iterates over the chunks of a range of the rope. Like a sumtree
// cursor, it must not be used after the rope is mutated.
type Chunks struct {
	cursor *sumtree.Cursor[Chunk, TextSummary]
	from   int
	to     int
	text   string
}

// Next advances to the next piece of text and reports whether there is one.
func (c *Chunks) Next() bool {
	for c.cursor.Valid() {
		start := c.cursor.Start().Bytes
		if start >= c.to {
			return false
		}

		text := c.cursor.Item().text
		lo := max(c.from, start) - start
		hi := min(c.to, start+len(text)) - start
		c.cursor.Next()

		if lo < hi {
			c.text = text[lo:hi]
			return true
		}
	}
	return false
}

// Text returns the current piece of text.
func (c *Chunks) Text() string {
	return c.text
}

// Err returns sumtree.ErrStaleCursor if the rope was mutated during iteration.
func (c *Chunks) Err() error {
	return c.cursor.Err()
}
