package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

func parseYaml(out interface{}, blob []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(blob))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("can't parse yaml: %w", err)
	}
	return nil
}

// expandEnv works like os.ExpandEnv, but also understands ${NAME:-default}.
func expandEnv(blob []byte) []byte {
	return []byte(os.Expand(string(blob), func(key string) string {
		name, def, hasDefault := strings.Cut(key, ":-")
		if value, ok := os.LookupEnv(name); ok && (value != "" || !hasDefault) {
			return value
		}
		return def
	}))
}
