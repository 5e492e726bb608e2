// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

package command

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/staranto/coursectl/internal/attrs"
)

// GlobalFlagsValidator checks the flags shared by every command. Flag level
// Validators have already run, so this only catches combinations.
func GlobalFlagsValidator(ctx context.Context, c *cli.Command) error {
	var al attrs.AttrList
	if err := al.Set(c.String("attrs")); err != nil {
		return fmt.Errorf("--attrs: %w", err)
	}
	return nil
}

type FlagValidatorType func(any) error

func FlagValidators(value any, validators ...FlagValidatorType) error {
	for _, v := range validators {
		if err := v(value); err != nil {
			return err
		}
	}
	return nil
}

// JammedFlagValidator verifies that the arg following a flag does not begin
// with '--'.  urfave/cli allows this and I don't see how to turn it off.
func JammedFlagValidator(value any) error {
	if strings.HasPrefix(value.(string), "--") {
		return errors.New("must not begin with '--'")
	}
	return nil
}

// PositiveValidator rejects zero and negative numbers.
func PositiveValidator(value any) error {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int64:
		n = v
	default:
		return fmt.Errorf("unexpected type %T", value)
	}
	if n <= 0 {
		return errors.New("must be greater than 0")
	}
	return nil
}

var validOutputFlagValues = []string{"text", "json", "raw", "yaml"}

func OutputValidator(value any) error {
	if !slices.Contains(validOutputFlagValues, value.(string)) {
		return fmt.Errorf("must be one of %v", validOutputFlagValues)
	}
	return nil
}
