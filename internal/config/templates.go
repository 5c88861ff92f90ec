package config

import (
	"fmt"
	"os"

	gotoml "github.com/pelletier/go-toml/v2"
)

const templateHeader = `# tlvctl configuration.
#
# [limits] bounds every decode pass: container nesting depth and the
# largest string or byte string a length prefix may announce.
# [frame] bounds framed payloads; compress enables zstd on write.
# [log] level: trace|debug|info|warn|error|off, format: console|json.
# [server] is the listen address and CORS origins for tlvctl serve.

`

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	out, err := gotoml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("config encode failed: %w", err)
	}
	return out, nil
}

// Template is the commented default configuration file.
func Template() (string, error) {
	body, err := Encode(Default())
	if err != nil {
		return "", err
	}
	return templateHeader + string(body), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
