package manifests

import (
	"bytes"
	"embed"
	"text/template"
)

//go:embed assets/*
var assetsFs embed.FS

func renderAsset(name string, data interface{}) ([]byte, error) {
	content, err := assetsFs.ReadFile("assets/" + name + ".yaml.tpl")
	if err != nil {
		return nil, err
	}
	tmpl, err := template.
		New(name).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, err
	}
	var tpl bytes.Buffer
	if err := tmpl.Execute(&tpl, data); err != nil {
		return nil, err
	}
	return tpl.Bytes(), nil
}
