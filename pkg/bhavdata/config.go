package bhavdata

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nsetools/bhavadjust/pkg/errors"
)

// LoadConfig reads a pipeline configuration from a YAML file.
func LoadConfig(path string) (ClientConfig, error) {
	var config ClientConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return config, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse config %s", path)
	}

	return config, nil
}

// Validate checks the configuration against its constraints.
func (c ClientConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	return nil
}
