package envutil

import (
	"os"
	"strings"
)

// IsDev checks if we're running in development mode
// where a plain-http redirect base is tolerated
func IsDev() bool {
	env := strings.ToLower(os.Getenv("DECAP_AUTH_ENV"))
	return env == "development" || env == "dev"
}
