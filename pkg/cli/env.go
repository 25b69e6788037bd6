package cli

import (
	"os"
	"strings"
)

// envPrefix marks variables read by lintgate itself. They carry credentials (GitHub App key,
// webhook secret, Slack URL, Sentry DSN) and are not passed to lint subprocesses.
const envPrefix = "LINTGATE_"

func childEnv() []string {
	return filterEnv(os.Environ())
}

func filterEnv(environ []string) []string {
	env := make([]string, 0, len(environ))
	for _, kv := range environ {
		if strings.HasPrefix(kv, envPrefix) {
			continue
		}
		env = append(env, kv)
	}
	return env
}
