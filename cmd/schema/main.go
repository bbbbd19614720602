// Command schema writes a JSON schema describing the relay wire protocol,
// for validation and editor tooling on the browser side.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"physics-playground/internal/net/proto"
)

// Protocol groups every wire payload so a single schema document covers the
// whole protocol surface.
type Protocol struct {
	Envelope proto.Envelope      `json:"envelope" jsonschema:"description=Outer frame carried in every websocket text message"`
	Init     proto.InitPayload   `json:"physics_init" jsonschema:"description=Bootstrap payload unicast in reply to client_ready"`
	Update   proto.UpdatePayload `json:"physics_update" jsonschema:"description=Shared mutation payload broadcast to every connection"`
	Object   proto.ObjectPayload `json:"object" jsonschema:"description=Flat wire form of one simulated body"`
}

func main() {
	var outPath string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema := buildSchema()

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(new(Protocol))
	schema.Title = "Physics Playground Wire Protocol"
	schema.Description = "Validates the JSON frames exchanged between relay and clients"
	return schema
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
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
