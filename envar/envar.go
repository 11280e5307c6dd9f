package envar

import "os"

const (
	OpenvhidVerbose = "OPENVHID_VERBOSE"
)

func Getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}
