// Package web embeds the preview page.
package web

import _ "embed"

//go:embed index.html
var IndexHTML []byte
