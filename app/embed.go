// Package app embeds the externally authored deployment artifacts: the
// function code manifest and the state machine definition templates.
package app

import "embed"

// FS holds artifacts.yaml and step-functions-templates/.
//
//go:embed artifacts.yaml step-functions-templates/*.asl.json
var FS embed.FS
