package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

const (
	EnvironmentVariablePrefix = "PUBLIBASE_"

	// fileSuffix marks an env var whose value is a path to a file holding
	// the flag value.
	fileSuffix = "_FILE"
)

// SetFlagsFromEnvVariables sets each flag from an env variable whose name
// starts with `PUBLIBASE_`, e.g. the flag --geoserver-url is set from
// PUBLIBASE_GEOSERVER_URL. If PUBLIBASE_GEOSERVER_URL_FILE is set instead then
// the flag is set to the contents of the named file. Flags already set on the
// command line take precedence and are left alone.
func SetFlagsFromEnvVariables(fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Changed {
			return
		}
		// a flag ending in _file would clash with the file variant of another
		// flag
		if strings.HasSuffix(f.Name, strings.ToLower(fileSuffix)) {
			return
		}
		envVar := flagToEnvVarName(f)
		if val, present := os.LookupEnv(envVar); present {
			if err := fs.Set(f.Name, val); err != nil {
				errs = append(errs, fmt.Errorf("setting %s from %s: %w", f.Name, envVar, err))
			}
			return
		}
		if path, present := os.LookupEnv(envVar + fileSuffix); present {
			contents, err := os.ReadFile(path)
			if err != nil {
				errs = append(errs, fmt.Errorf("reading %s: %w", envVar+fileSuffix, err))
				return
			}
			if err := fs.Set(f.Name, string(contents)); err != nil {
				errs = append(errs, fmt.Errorf("setting %s from %s: %w", f.Name, envVar+fileSuffix, err))
			}
		}
	})
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func flagToEnvVarName(f *pflag.Flag) string {
	return fmt.Sprintf("%s%s", EnvironmentVariablePrefix, strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"))
}
