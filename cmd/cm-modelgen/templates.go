package main

import (
	"fmt"
	"strings"
	"text/template"
)

// funcMap provides helper functions available to all templates.
var funcMap = template.FuncMap{
	"firstLower": firstLower,
	"quote":      func(s string) string { return fmt.Sprintf("%q", s) },
}

// templates holds all parsed code generation templates.
var templates = template.Must(template.New("").Funcs(funcMap).Parse(
	headerTmpl +
		structTmpl +
		nodeTmpl,
))

// renderTemplate executes a named template into the builder.
func renderTemplate(b *strings.Builder, name string, data any) error {
	if err := templates.ExecuteTemplate(b, name, data); err != nil {
		return fmt.Errorf("template %s: %w", name, err)
	}
	return nil
}

// --- Template data types ---

// fileData holds data for the file header.
type fileData struct {
	Package string
	Source  string
}

// modelData holds pre-computed data for one model type.
type modelData struct {
	Name        string
	Recv        string
	Description string
	Projection  string
	IDField     string
	Fields      []fieldData
}

type fieldData struct {
	GoName      string
	GoType      string
	Elem        string
	Kind        string // "scalar", "child" or "list"
	Required    bool
	Description string
}

// --- Template definitions ---

const headerTmpl = `{{define "header" -}}
// Code generated by cm-modelgen from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import "github.com/graphcache/consistency-go/pkg/model"
{{end}}`

const structTmpl = `{{define "struct"}}
{{- if .Description}}
// {{.Name}} {{firstLower .Description}}.
{{- end}}
type {{.Name}} struct {
{{- range .Fields}}
{{- if .Description}}
// {{.GoName}} {{firstLower .Description}}.
{{- end}}
{{.GoName}} {{.GoType}}
{{- end}}
}

var _ model.Node = (*{{.Name}})(nil)
{{end}}`

const nodeTmpl = `{{define "node"}}
{{- $r := .Recv}}{{$n := .Name}}
// ID returns the identifier of the {{firstLower .Name}}.
func ({{$r}} *{{$n}}) ID() string {
return {{if .IDField}}{{$r}}.{{.IDField}}{{else}}""{{end}}
}
{{if .Projection}}
// Projection returns the projection name of {{$n}}.
func ({{$r}} *{{$n}}) Projection() string {
return {{quote .Projection}}
}
{{end}}
// ForEach calls fn for every child node.
func ({{$r}} *{{$n}}) ForEach(fn func(model.Node)) {
{{- range .Fields}}
{{- if eq .Kind "child"}}
if {{$r}}.{{.GoName}} != nil {
fn({{$r}}.{{.GoName}})
}
{{- else if eq .Kind "list"}}
for _, child := range {{$r}}.{{.GoName}} {
fn(child)
}
{{- end}}
{{- end}}
}

// Map returns a copy with every child replaced by fn(child).
func ({{$r}} *{{$n}}) Map(fn func(model.Node) model.Node) model.Node {
out := *{{$r}}
{{- range .Fields}}
{{- if eq .Kind "child"}}
if {{$r}}.{{.GoName}} != nil {
mapped, _ := fn({{$r}}.{{.GoName}}).(*{{.Elem}})
{{- if .Required}}
if mapped == nil {
return nil
}
{{- end}}
out.{{.GoName}} = mapped
}
{{- else if eq .Kind "list"}}
if {{$r}}.{{.GoName}} != nil {
out.{{.GoName}} = make([]*{{.Elem}}, 0, len({{$r}}.{{.GoName}}))
for _, child := range {{$r}}.{{.GoName}} {
if mapped, ok := fn(child).(*{{.Elem}}); ok && mapped != nil {
out.{{.GoName}} = append(out.{{.GoName}}, mapped)
}
}
}
{{- end}}
{{- end}}
return &out
}

// MergeWith returns other when it is a {{$n}}.
func ({{$r}} *{{$n}}) MergeWith(other model.Node) model.Node {
if that, ok := other.(*{{$n}}); ok && that != nil {
return that
}
return {{$r}}
}

// Equal reports whether other is a {{$n}} with the same data.
func ({{$r}} *{{$n}}) Equal(other model.Node) bool {
that, ok := other.(*{{$n}})
if !ok || that == nil {
return false
}
{{- range .Fields}}
{{- if eq .Kind "scalar"}}
if {{$r}}.{{.GoName}} != that.{{.GoName}} {
return false
}
{{- else if eq .Kind "child"}}
if ({{$r}}.{{.GoName}} == nil) != (that.{{.GoName}} == nil) || ({{$r}}.{{.GoName}} != nil && !{{$r}}.{{.GoName}}.Equal(that.{{.GoName}})) {
return false
}
{{- else if eq .Kind "list"}}
if len({{$r}}.{{.GoName}}) != len(that.{{.GoName}}) {
return false
}
for idx := range {{$r}}.{{.GoName}} {
if !{{$r}}.{{.GoName}}[idx].Equal(that.{{.GoName}}[idx]) {
return false
}
}
{{- end}}
{{- end}}
return true
}
{{end}}`
