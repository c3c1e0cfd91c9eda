package schema

import _ "embed"

// ChainsV1Schema contains the JSON schema for chain files.
//
//go:embed chains.v1.json
var ChainsV1Schema []byte
