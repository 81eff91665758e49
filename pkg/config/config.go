package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/xyproto/env/v2"
)

type Feature int

const (
	FeatCComments Feature = iota
	FeatImplicitFunc
	FeatAsmComments
	FeatFold
	FeatCount
)

type Warning int

const (
	WarnImplicitDecl Warning = iota
	WarnOverflow
	WarnUnusedValue
	WarnShadow
	WarnPedantic
	WarnExtra
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	StdName    string
	GOOS       string
	GOARCH     string

	// Driver settings, overridable from the environment.
	CC         string
	Verbose    bool
	KeepAsm    bool
	EnvFlags   string
	LinkerArgs []string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		StdName:    "c99",
		CC:         env.Str("LCC_CC", "cc"),
		Verbose:    env.Bool("LCC_VERBOSE"),
		KeepAsm:    env.Bool("LCC_KEEP_ASM"),
		EnvFlags:   env.Str("LCC_FLAGS", ""),
	}

	features := map[Feature]Info{
		FeatCComments:    {"c-comments", true, "Recognize C99 '//' line comments."},
		FeatImplicitFunc: {"implicit-func", true, "Allow calls to functions that were never declared."},
		FeatAsmComments:  {"asm-comments", true, "Keep '# ...' annotation lines in the generated assembly."},
		FeatFold:         {"fold", true, "Fold operators applied to literal operands."},
	}

	warnings := map[Warning]Info{
		WarnImplicitDecl: {"implicit-decl", true, "Warn about calls to undeclared functions."},
		WarnOverflow:     {"overflow", true, "Warn when an integer constant does not fit its type."},
		WarnUnusedValue:  {"unused-value", false, "Warn when the value of a side-effect free expression is discarded."},
		WarnShadow:       {"shadow", false, "Warn when a local declaration shadows an outer one."},
		WarnPedantic:     {"pedantic", false, "Issue all warnings demanded by the selected standard."},
		WarnExtra:        {"extra", true, "Enable extra miscellaneous warnings."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}
	return cfg
}

// SetTarget records the host target. Only amd64 is supported.
func (c *Config) SetTarget(goos, goarch string) error {
	c.GOOS, c.GOARCH = goos, goarch
	if goarch != "amd64" {
		return fmt.Errorf("unsupported target architecture '%s' (only amd64 is supported)", goarch)
	}
	if goos != "linux" && goos != "freebsd" {
		fmt.Fprintf(os.Stderr, "lcc: warning: target OS '%s' is untested; emitting ELF/System V assembly.\n", goos)
	}
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd selects the language standard. c89 has no '//' comments and, under
// -pedantic, no implicit function declarations either.
func (c *Config) ApplyStd(stdName string) error {
	isPedantic := c.IsWarningEnabled(WarnPedantic)
	switch stdName {
	case "c89", "c90":
		c.SetFeature(FeatCComments, !isPedantic)
		c.SetFeature(FeatImplicitFunc, true)
		c.SetWarning(WarnImplicitDecl, isPedantic)
	case "c99", "":
		stdName = "c99"
		c.SetFeature(FeatCComments, true)
		c.SetFeature(FeatImplicitFunc, !isPedantic)
		c.SetWarning(WarnImplicitDecl, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'c89', 'c99'", stdName)
	}
	if isPedantic {
		c.SetWarning(WarnUnusedValue, true)
		c.SetWarning(WarnShadow, true)
	}
	c.StdName = stdName
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	isWarning := true
	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		isWarning = false
	default:
		name = trimmed
	}
	if isNo {
		name = strings.TrimPrefix(name, "no-")
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else if f, ok := c.FeatureMap[name]; ok {
		c.SetFeature(f, enable)
	}
}

// ProcessDirectiveFlags applies a whitespace separated list such as "-Wall -Fno-fold".
func (c *Config) ProcessDirectiveFlags(flagStr string) {
	for _, flag := range strings.Fields(flagStr) {
		c.applyFlag(flag)
	}
}
