package instance

import (
	"testing"

	"github.com/docker/docker/api/types"
	"github.com/stretchr/testify/assert"
)

func TestDetermineStatus(t *testing.T) {
	cases := []struct {
		name   string
		states []string
		want   Status
	}{
		{"all running", []string{"running", "running"}, StatusRunning},
		{"all stopped", []string{"exited", "exited"}, StatusStopped},
		{"mixed is degraded", []string{"running", "exited"}, StatusDegraded},
		{"no containers", nil, StatusStopped},
		{"single running", []string{"running"}, StatusRunning},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var containers []types.Container
			for _, s := range tc.states {
				containers = append(containers, types.Container{State: s})
			}
			assert.Equal(t, tc.want, DetermineStatus(containers))
		})
	}
}
