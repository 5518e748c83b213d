package conf

import (
	"fmt"
	"os"

	"github.com/questline/ilp/errs"
)

// EnvVarName is the environment variable consulted when no explicit
// configuration string is given.
const EnvVarName = "ILP_CLIENT_CONF"

// FromEnv parses the configuration string held in the ILP_CLIENT_CONF
// environment variable.
func FromEnv() (*Config, error) {
	s, ok := os.LookupEnv(EnvVarName)
	if !ok || s == "" {
		return nil, fmt.Errorf("%w: environment variable %s is not set", errs.ErrInvalidConf, EnvVarName)
	}

	return Parse(s)
}
