package web

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

// ThemeSelector resolves a theme and variant for the page. It matches the
// selector contract exposed by go-theme.
type ThemeSelector interface {
	Select(name, variant string, opts ...theme.QueryOption) (*theme.Selection, error)
}

// DefaultTheme is the manifest used when no selector is configured.
func DefaultTheme() *theme.Manifest {
	return &theme.Manifest{
		Name:    "bookform",
		Version: "1.0.0",
		Tokens: map[string]string{
			"font":       "system-ui, sans-serif",
			"background": "#ffffff",
			"foreground": "#1b1b1f",
			"border":     "#c9c9d1",
			"brand":      "#2f5d9e",
			"on-brand":   "#ffffff",
			"danger":     "#b00020",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"background": "#16161a",
					"foreground": "#ececf1",
					"border":     "#3a3a44",
					"brand":      "#7aa2e3",
					"on-brand":   "#16161a",
					"danger":     "#ff6b81",
				},
			},
		},
	}
}

type staticSelector struct {
	manifest *theme.Manifest
}

func (s staticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name != "" && name != s.manifest.Name {
		return nil, fmt.Errorf("web: unknown theme %q", name)
	}
	if variant != "" {
		if _, ok := s.manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("web: unknown variant %q for theme %q", variant, s.manifest.Name)
		}
	}
	return &theme.Selection{Theme: s.manifest.Name, Variant: variant, Manifest: s.manifest}, nil
}

// pageTheme is the resolved token set handed to the template.
type pageTheme struct {
	Name    string
	Variant string
	Tokens  map[string]string
}

func resolveTheme(selection *theme.Selection) pageTheme {
	if selection == nil || selection.Manifest == nil {
		return pageTheme{}
	}
	out := pageTheme{
		Name:    selection.Theme,
		Variant: selection.Variant,
		Tokens:  make(map[string]string, len(selection.Manifest.Tokens)),
	}
	for key, value := range selection.Manifest.Tokens {
		out.Tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			out.Tokens[key] = value
		}
	}
	return out
}

// cssVars renders tokens as a :root block of --bookform-* custom properties.
func (t pageTheme) cssVars() string {
	if len(t.Tokens) == 0 {
		return ""
	}
	keys := make([]string, 0, len(t.Tokens))
	for key := range t.Tokens {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		value := t.Tokens[key]
		// Token values land inside a <style> block.
		if strings.ContainsAny(value, "<>{};") {
			continue
		}
		b.WriteString("  --bookform-")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
