package static

import (
	"embed"
)

//go:embed favicon.html
var FS embed.FS
