package config

import (
	"fmt"
	"io/ioutil"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Load decodes the yaml or json file at path into v.
// Keys missing from the file leave the corresponding fields of v untouched.
func Load(path string, v interface{}) error {
	b, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("could not decode config '%s': %w", path, err)
	}
	log.Info().Str("path", path).Msg("loaded config")
	return nil
}
