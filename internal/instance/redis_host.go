package instance

import (
	"fmt"
	"os"
)

// GetRedisHost returns the appropriate Redis hostname for the current
// environment. Inside a container it returns "host.docker.internal" to reach
// the host's published ports; otherwise "localhost".
func GetRedisHost() string {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return "host.docker.internal"
	}
	return "localhost"
}

// GetRedisAddr constructs the host:port Redis address for a given port.
func GetRedisAddr(port int) string {
	return fmt.Sprintf("%s:%d", GetRedisHost(), port)
}
