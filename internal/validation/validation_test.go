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

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yorkie-team/cotext/pkg/errors"
)

func TestValidation(t *testing.T) {
	t.Run("duration test", func(t *testing.T) {
		assert.NoError(t, ValidateValue("1h30m20s", "duration"))
		assert.NoError(t, ValidateValue("0s", "duration"))

		err := ValidateValue("one hour", "duration")
		var violation Violation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "duration", violation.Tag)

		assert.Error(t, ValidateValue("-1s", "duration"))
	})

	t.Run("struct test", func(t *testing.T) {
		type config struct {
			MaxLeafBytes  int    `validate:"gte=16"`
			GCGracePeriod string `validate:"duration"`
		}

		err := ValidateStruct(config{MaxLeafBytes: 8, GCGracePeriod: "soon"})
		var structError *StructError
		require.ErrorAs(t, err, &structError)
		assert.Len(t, structError.Violations, 2)
		assert.Equal(t, "MaxLeafBytes", structError.Violations[0].Field)
		assert.Contains(t, err.Error(), "GCGracePeriod must be a valid time duration string format")
		assert.ErrorIs(t, err, ErrInvalid)
		assert.Equal(t, errors.ErrCodeInvalidArgument, errors.StatusOf(err))

		assert.NoError(t, ValidateStruct(config{MaxLeafBytes: 16, GCGracePeriod: "0s"}))
	})

	t.Run("custom rule test", func(t *testing.T) {
		v, err := New()
		require.NoError(t, err)
		require.NoError(t, v.Register(Rule{
			Tag:     "lowercase_hex",
			Message: "{0} must be lowercase hex",
			Check: func(level FieldLevel) bool {
				for _, c := range level.Field().String() {
					if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
						return false
					}
				}
				return true
			},
		}))

		assert.NoError(t, v.Value("00ff", "lowercase_hex"))
		err = v.Value("00FF", "required,lowercase_hex")
		var violation Violation
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "lowercase_hex", violation.Tag)

		// rules registered on one Validator do not leak into the default one
		assert.Panics(t, func() { _ = ValidateValue("00FF", "lowercase_hex") })
	})
}
