package web

import (
	"embed"
	"io/fs"
)

// Assets holds the page template and the static directory.
//
//go:embed index.html static
var Assets embed.FS

// Static returns the files served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(Assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
