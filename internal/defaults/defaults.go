// Package defaults provides an embedded copy of the example
// configuration for the assistant init subcommand.
package defaults

import _ "embed"

//go:generate cp ../../examples/config.example.yaml .

//go:embed config.example.yaml
var ConfigYAML []byte
