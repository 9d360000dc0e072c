package config

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	ferrors "github.com/OldUser101/tars/internal/foundation/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator reports field names using their YAML keys.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks field constraints and the cross-field layout rules the
// builder relies on. Failures are returned as config errors.
func Validate(cfg *Config) error {
	cv := &configurationValidator{config: cfg}
	if err := cv.validate(); err != nil {
		return ferrors.ConfigError("invalid configuration").WithCause(err).
			WithContext("path", cfg.Path).Build()
	}
	return nil
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateFields(); err != nil {
		return err
	}
	if err := cv.validatePlugins(); err != nil {
		return err
	}
	if err := cv.validateStaticPrefix(); err != nil {
		return err
	}
	return cv.validatePaths()
}

func (cv *configurationValidator) validateFields() error {
	err := structValidator().Struct(cv.config)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

// validatePlugins rejects names that would not resolve to a file directly
// inside the plugin directory.
func (cv *configurationValidator) validatePlugins() error {
	for i, p := range cv.config.Plugins {
		if p.Name == "." || p.Name == ".." || filepath.Base(p.Name) != p.Name {
			return fmt.Errorf("plugin[%d].name: %q is not a bare file name", i, p.Name)
		}
	}
	return nil
}

func (cv *configurationValidator) validateStaticPrefix() error {
	prefix := cv.config.Build.StaticPrefix
	if prefix == "" {
		return nil
	}
	if slices.Contains(strings.Split(prefix, "/"), "..") {
		return fmt.Errorf("build.static_prefix: %q must not contain '..'", prefix)
	}
	return nil
}

// validatePaths keeps the output directory apart from the inputs and makes
// sure every tree gets its own name inside the sandbox.
func (cv *configurationValidator) validatePaths() error {
	b := cv.config.Build
	inputs := map[string]string{
		"build.content_dir":  b.ContentDir,
		"build.template_dir": b.TemplateDir,
		"build.static_dir":   b.StaticDir,
	}
	for _, key := range slices.Sorted(maps.Keys(inputs)) {
		in := inputs[key]
		if within(b.OutputDir, in) || within(in, b.OutputDir) {
			return fmt.Errorf("build.output_dir (%s) must not overlap %s (%s)", b.OutputDir, key, in)
		}
	}

	names := map[string]string{}
	entries := [][2]string{
		{"build.content_dir", b.ContentDir},
		{"build.template_dir", b.TemplateDir},
		{"build.static_dir", b.StaticDir},
		{"build.output_dir", b.OutputDir},
	}
	if cv.config.Path != "" {
		entries = append(entries, [2]string{"config file", cv.config.Path})
	}
	for _, e := range entries {
		base := filepath.Base(e[1])
		if prev, ok := names[base]; ok {
			return fmt.Errorf("%s and %s share the name %q", prev, e[0], base)
		}
		names[base] = e[0]
	}
	return nil
}

// within reports whether path equals dir or lies beneath it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
