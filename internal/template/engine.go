// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package template // import "feedviewer.app/v1/internal/template"

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
)

//go:embed templates/common/*.html
var commonTemplateFiles embed.FS

//go:embed templates/views/*.html
var viewTemplateFiles embed.FS

// Engine handles the templating system.
type Engine struct {
	templates map[string]*template.Template
}

// NewEngine returns a new template engine.
func NewEngine() *Engine {
	return &Engine{templates: make(map[string]*template.Template)}
}

// MustParse returns an engine with all templates parsed or panics.
func MustParse() *Engine {
	e := NewEngine()
	if err := e.ParseTemplates(); err != nil {
		panic(err)
	}
	return e
}

// ParseTemplates parses template files embed into the application. Every
// view is parsed together with all common templates.
func (e *Engine) ParseTemplates() error {
	var commonTemplateContents strings.Builder

	dirEntries, err := commonTemplateFiles.ReadDir("templates/common")
	if err != nil {
		return fmt.Errorf("template: failed read templates/common/: %w", err)
	}

	for _, dirEntry := range dirEntries {
		fullName := "templates/common/" + dirEntry.Name()
		fileData, err := commonTemplateFiles.ReadFile(fullName)
		if err != nil {
			return fmt.Errorf("template: failed read %q: %w", fullName, err)
		}
		commonTemplateContents.Write(fileData)
	}

	dirEntries, err = viewTemplateFiles.ReadDir("templates/views")
	if err != nil {
		return fmt.Errorf("template: failed read templates/views/: %w", err)
	}

	for _, dirEntry := range dirEntries {
		templateName := dirEntry.Name()
		fullName := "templates/views/" + templateName
		fileData, err := viewTemplateFiles.ReadFile(fullName)
		if err != nil {
			return fmt.Errorf("template: failed read %q: %w", fullName, err)
		}

		var templateContents strings.Builder
		templateContents.WriteString(commonTemplateContents.String())
		templateContents.Write(fileData)

		slog.Debug("Parsing template",
			slog.String("template_name", templateName))

		tpl, err := template.New("main").Parse(templateContents.String())
		if err != nil {
			return fmt.Errorf("template: failed parse %q: %w", fullName, err)
		}
		e.templates[templateName] = tpl
	}
	return nil
}

// Render process a template. It panics if the template doesn't exist or
// can't be executed with data.
func (e *Engine) Render(name string, data any) []byte {
	tpl, ok := e.templates[name]
	if !ok {
		panic("This template does not exists: " + name)
	}

	var b bytes.Buffer
	if err := tpl.ExecuteTemplate(&b, "base", data); err != nil {
		panic(err)
	}
	return b.Bytes()
}
