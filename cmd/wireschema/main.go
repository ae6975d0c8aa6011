// Command wireschema emits a JSON Schema describing every message the
// game speaks over its length-prefixed TCP framing.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iancoleman/orderedmap"
	"github.com/invopop/jsonschema"

	"github.com/burbokop/fast-pased-mp-game/protocol"
)

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	if err := writeSchema(outPath, buildSchema()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

type variant struct {
	tag     string
	desc    string
	payload interface{}
}

func variants() []variant {
	return []variant{
		{protocol.MsgInit, "server to client, once per connection", protocol.InitMsg{}},
		{protocol.MsgBroadcast, "server to client, periodic world snapshot", protocol.BroadcastMsg{}},
		{protocol.MsgKill, "server to client, the receiver's character died", protocol.KillMsg{}},
		{protocol.MsgJoin, "client to server, must be the first client message", protocol.JoinMsg{}},
		{protocol.MsgInput, "client to server, one frame of input", protocol.InputMsg{}},
		{protocol.MsgRespawn, "client to server, weapon choice for the next life", protocol.RespawnMsg{}},
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{}

	root := &jsonschema.Schema{
		Version: jsonschema.Version,
		Title:   "Arena wire protocol",
		Description: "Envelopes carried as JSON payloads of frames prefixed " +
			"with a big endian uint32 payload length.",
		Definitions: jsonschema.Definitions{},
	}

	for _, v := range variants() {
		payload := reflector.Reflect(v.payload)
		for name, def := range payload.Definitions {
			root.Definitions[name] = def
		}

		props := orderedmap.New()
		props.Set("t", &jsonschema.Schema{Type: "string", Enum: []interface{}{v.tag}})
		props.Set("d", &jsonschema.Schema{Ref: payload.Ref})

		root.OneOf = append(root.OneOf, &jsonschema.Schema{
			Type:        "object",
			Title:       v.tag,
			Description: v.desc,
			Properties:  props,
			Required:    []string{"t"},
		})
	}
	return root
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create schema directory: %w", err)
		}
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}
	return nil
}
