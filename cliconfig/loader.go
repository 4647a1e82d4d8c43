// Package cliconfig loads command configuration structs from urfave/cli
// contexts using `cli:"..."` struct tags.
//
// It is intended for internal use by mirirun only.
package cliconfig

import (
	"fmt"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"

	"github.com/oleiade/reflections"
	"github.com/urfave/cli"
)

type Loader struct {
	// The context that is passed when using a urfave/cli action
	CLI *cli.Context

	// The struct that the config values will be loaded into
	Config any
}

// Matches "arg:index" (specific non-flag arg) or "arg:*" (all non-flag args).
var argCLINameRE = regexp.MustCompile(`arg:(\d+|\*)`)

// Load populates the config struct from the CLI context, applies any
// normalizations and runs validations.
func (l Loader) Load() error {
	fields, _ := reflections.FieldsDeep(l.Config)

	for _, fieldName := range fields {
		cliName, _ := reflections.GetFieldTag(l.Config, fieldName, "cli")
		if cliName != "" {
			if err := l.setFieldValueFromCLI(fieldName, cliName); err != nil {
				return fmt.Errorf("setting config field %s: %w", fieldName, err)
			}
		}

		normalization, _ := reflections.GetFieldTag(l.Config, fieldName, "normalize")
		if normalization != "" {
			if err := l.normalizeField(fieldName, normalization); err != nil {
				return fmt.Errorf("normalizing config field %s: %w", fieldName, err)
			}
		}

		validationRules, _ := reflections.GetFieldTag(l.Config, fieldName, "validate")
		if validationRules != "" {
			label := cliName
			if label == "" {
				label = fieldName
			}
			if err := l.validateField(fieldName, label, validationRules); err != nil {
				return err
			}
		}
	}

	return nil
}

func (l Loader) setFieldValueFromCLI(fieldName, cliName string) error {
	fieldKind, err := reflections.GetFieldKind(l.Config, fieldName)
	if err != nil {
		return fmt.Errorf("getting the kind of struct field %q: %w", fieldName, err)
	}

	var value any

	// See if the cli option is using the arg format (arg:1)
	if argMatch := argCLINameRE.FindStringSubmatch(cliName); len(argMatch) > 0 {
		argNum := argMatch[1]

		if argNum == "*" {
			value = []string(l.CLI.Args())
		} else {
			argIndex, err := strconv.Atoi(argNum)
			if err != nil {
				return fmt.Errorf("converting arg position %q to an integer: %w", argNum, err)
			}
			if argIndex < len(l.CLI.Args()) {
				value = l.CLI.Args()[argIndex]
			} else {
				value = ""
			}
		}
	} else {
		switch fieldKind {
		case reflect.String:
			value = l.CLI.String(cliName)
		case reflect.Bool:
			value = l.CLI.Bool(cliName)
		case reflect.Int:
			value = l.CLI.Int(cliName)
		case reflect.Slice:
			value = []string(l.CLI.StringSlice(cliName))
		default:
			return fmt.Errorf("unable to handle a config field with kind %v", fieldKind)
		}
	}

	if err := reflections.SetField(l.Config, fieldName, value); err != nil {
		return fmt.Errorf("setting field %q to value %v: %w", fieldName, value, err)
	}

	return nil
}

func (l Loader) normalizeField(fieldName, normalization string) error {
	switch normalization {
	case "filepath":
		value, _ := reflections.GetField(l.Config, fieldName)
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("filepath normalization only applies to string fields")
		}
		if str == "" {
			return nil
		}
		abs, err := filepath.Abs(str)
		if err != nil {
			return err
		}
		return reflections.SetField(l.Config, fieldName, abs)
	default:
		return fmt.Errorf("unknown normalization %q", normalization)
	}
}

func (l Loader) validateField(fieldName, label, validationRules string) error {
	switch validationRules {
	case "required":
		value, _ := reflections.GetField(l.Config, fieldName)
		if isEmptyValue(value) {
			return fmt.Errorf("missing %s. See: `%s %s --help`", label, l.CLI.App.Name, l.CLI.Command.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown validation rule %q", validationRules)
	}
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case int:
		return v == 0
	case bool:
		return !v
	case nil:
		return true
	}
	return false
}
