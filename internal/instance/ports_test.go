package instance

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPortBindable(t *testing.T) {
	// Grab an ephemeral port, then check bindability before and after release.
	listener, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port

	assert.False(t, isPortBindable(port), fmt.Sprintf("port %d is held open", port))

	listener.Close()
	assert.True(t, isPortBindable(port))
}

func TestPortRange(t *testing.T) {
	assert.Equal(t, 100, endPort-startPort+1)
}
