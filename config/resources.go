package config

import (
	"embed"

	"github.com/xuesi9527/async-http-client/internal/properties"
)

const (
	// DefaultResource is the packaged resource holding built-in defaults.
	DefaultResource = "ahc-default.properties"
	// CustomResource is the optional user resource re-read on every reload.
	CustomResource = "ahc.properties"
)

//go:embed ahc-default.properties
var packaged embed.FS

func packagedDefaults() properties.Source {
	return properties.FSSource{FS: packaged, Path: DefaultResource}
}

func customResource(dirs []string) properties.Source {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	return properties.SearchPathSource{File: CustomResource, Dirs: dirs}
}
