// Package guard puts the binaries into test mode. Test files import it for
// its side effect so that calling main does not dial Redis, Postgres or SEC.
package guard

import "os"

// Env is the variable read by app.InTestMode.
const Env = "TRACEMONEY_TEST_MODE"

func init() {
	if os.Getenv(Env) == "" {
		_ = os.Setenv(Env, "1")
	}
}
