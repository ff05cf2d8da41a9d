// Package web carries the embedded server-rendered assets.
package web

import "embed"

//go:embed templates/*.html
var TemplatesFS embed.FS
