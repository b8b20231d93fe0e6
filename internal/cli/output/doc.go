// Package output renders RESP replies for respkv-cli.
//
// Three formats are supported:
//
//   - raw: redis-cli style text ("OK", "(nil)", "(integer) 1", quoted bulks)
//   - json: one JSON document per reply, for scripting
//   - yaml: the same structure as json, encoded as YAML
package output
