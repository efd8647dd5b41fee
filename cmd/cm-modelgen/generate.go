package main

import (
	"strings"
	"unicode"
)

// Generate renders Go source for every model in f. source names the
// definition file in the generated header.
func Generate(f *RawModelFile, source string) (string, error) {
	models := make(map[string]bool, len(f.Models))
	for _, m := range f.Models {
		models[m.Name] = true
	}

	var b strings.Builder
	if err := renderTemplate(&b, "header", fileData{Package: f.Package, Source: source}); err != nil {
		return "", err
	}

	for _, m := range f.Models {
		data := buildModelData(m, models)
		if err := renderTemplate(&b, "struct", data); err != nil {
			return "", err
		}
		if err := renderTemplate(&b, "node", data); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func buildModelData(m RawModelDef, models map[string]bool) modelData {
	data := modelData{
		Name:        m.Name,
		Recv:        recvName(m.Name),
		Description: m.Description,
		Projection:  m.Projection,
	}
	if m.IDField != "" {
		data.IDField = fieldGoName(m.IDField)
	}

	for _, fd := range m.Fields {
		field := fieldData{
			GoName:      fieldGoName(fd.Name),
			Required:    fd.Required,
			Description: fd.Description,
		}
		switch fieldKind(fd.Type, models) {
		case kindChild:
			field.Kind = "child"
			field.Elem = fd.Type
			field.GoType = "*" + fd.Type
		case kindList:
			field.Kind = "list"
			field.Elem = fd.Type[2:]
			field.GoType = "[]*" + field.Elem
		default:
			field.Kind = "scalar"
			field.GoType = fd.Type
		}
		data.Fields = append(data.Fields, field)
	}
	return data
}

// goTitleCase converts "likeCount" to "LikeCount" and "id" to "ID".
func goTitleCase(name string) string {
	if name == "" {
		return name
	}
	if strings.EqualFold(name, "id") {
		return "ID"
	}
	if strings.HasSuffix(name, "Id") {
		name = strings.TrimSuffix(name, "Id") + "ID"
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// fieldGoName is the struct field name for a YAML field. An "id" field
// becomes Identifier so it does not collide with the ID method.
func fieldGoName(name string) string {
	n := goTitleCase(name)
	if n == "ID" {
		return "Identifier"
	}
	return n
}

// firstLower lowercases the first letter of s unless it starts an acronym.
func firstLower(s string) string {
	r := []rune(s)
	if len(r) == 0 || (len(r) > 1 && unicode.IsUpper(r[1])) {
		return s
	}
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// recvName returns the receiver name for a type: its lowercased first letter.
func recvName(typeName string) string {
	return strings.ToLower(typeName[:1])
}
