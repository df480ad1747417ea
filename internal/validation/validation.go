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

// Package validation checks values provided by users, such as configuration
// files, against struct tags and reports translated messages.
package validation

import (
	"fmt"
	"os"
	"strings"
	gotime "time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/yorkie-team/cotext/pkg/errors"
)

// ErrInvalid is wrapped by every error of this package.
var ErrInvalid = errors.InvalidArgument("invalid value").WithCode("ErrInvalid")

// FieldLevel is the field level interface.
type FieldLevel = validator.FieldLevel

// Rule is a custom tag with the message reported when it fails. {0} in the
// message is replaced with the field name.
type Rule struct {
	Tag     string
	Message string
	Check   func(level FieldLevel) bool
}

// rules are registered to every Validator.
var rules = []Rule{
	{
		Tag:     "duration",
		Message: "{0} must be a valid time duration string format",
		Check: func(level FieldLevel) bool {
			d, err := gotime.ParseDuration(level.Field().String())
			return err == nil && d >= 0
		},
	},
}

// Violation is a single failed check.
type Violation struct {
	Tag         string
	Field       string
	Description string
}

// Error returns the translated description.
func (v Violation) Error() string {
	return v.Description
}

// Unwrap returns ErrInvalid.
func (v Violation) Unwrap() error {
	return ErrInvalid
}

// StructError is the error returned by the validation of struct.
type StructError struct {
	Violations []Violation
}

// Error returns the descriptions of all violations.
func (s *StructError) Error() string {
	descriptions := make([]string, len(s.Violations))
	for i, v := range s.Violations {
		descriptions[i] = v.Description
	}
	return strings.Join(descriptions, "; ")
}

// Unwrap returns ErrInvalid.
func (s *StructError) Unwrap() error {
	return ErrInvalid
}

// Validator validates values with the built-in tags, the registered rules
// and English messages.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a Validator with the default rules.
func New() (*Validator, error) {
	locale := en.New()
	trans, _ := ut.New(locale, locale).GetTranslator(locale.Locale())

	v := &Validator{
		validate: validator.New(),
		trans:    trans,
	}
	if err := entranslations.RegisterDefaultTranslations(v.validate, trans); err != nil {
		return nil, fmt.Errorf("register default translations: %w", err)
	}
	for _, rule := range rules {
		if err := v.Register(rule); err != nil {
			return nil, err
		}
	}

	return v, nil
}

// Register adds the given rule to this Validator.
func (v *Validator) Register(rule Rule) error {
	if err := v.validate.RegisterValidation(rule.Tag, rule.Check); err != nil {
		return fmt.Errorf("register %s: %w", rule.Tag, err)
	}

	if err := v.validate.RegisterTranslation(
		rule.Tag,
		v.trans,
		func(trans ut.Translator) error {
			return trans.Add(rule.Tag, rule.Message, true)
		},
		func(trans ut.Translator, fe validator.FieldError) string {
			msg, _ := trans.T(rule.Tag, fe.Field())
			return msg
		},
	); err != nil {
		return fmt.Errorf("register %s translation: %w", rule.Tag, err)
	}
	return nil
}

// Value validates a single value against the given tags.
func (v *Validator) Value(value any, tag string) error {
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}

	violations := v.violations(err)
	if len(violations) == 0 {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalid)
	}
	return violations[0]
}

// Struct validates the fields of a struct against their tags.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	violations := v.violations(err)
	if len(violations) == 0 {
		return fmt.Errorf("%s: %w", err.Error(), ErrInvalid)
	}
	return &StructError{Violations: violations}
}

func (v *Validator) violations(err error) []Violation {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}

	violations := make([]Violation, len(fieldErrors))
	for i, fe := range fieldErrors {
		violations[i] = Violation{
			Tag:         fe.Tag(),
			Field:       fe.StructField(),
			Description: fe.Translate(v.trans),
		}
	}
	return violations
}

var defaultValidator *Validator

// ValidateValue validates a value with the default Validator.
func ValidateValue(value any, tag string) error {
	return defaultValidator.Value(value, tag)
}

// ValidateStruct validates a struct with the default Validator.
func ValidateStruct(s any) error {
	return defaultValidator.Struct(s)
}

func init() {
	v, err := New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "validation:", err)
		os.Exit(1)
	}
	defaultValidator = v
}
