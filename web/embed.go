// Package web holds the built single-page frontend
package web

import (
	"embed"
	"io/fs"
)

//go:embed dist
var dist embed.FS

// Dist returns the frontend bundle rooted at its index.html
func Dist() fs.FS {
	sub, err := fs.Sub(dist, "dist")
	if err != nil {
		// dist is embedded at build time, Sub can only fail on an invalid path
		panic(err)
	}
	return sub
}
