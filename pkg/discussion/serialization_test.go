package discussion

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonaHashRoundTrip(t *testing.T) {
	p := validPersona()

	hash, err := PersonaToHash(p)
	require.NoError(t, err)

	// Redis returns hashes as map[string]string
	stringHash := make(map[string]string, len(hash))
	for k, v := range hash {
		stringHash[k] = v.(string)
	}

	decoded, err := HashToPersona(stringHash)
	require.NoError(t, err)
	assert.Equal(t, p, decoded)
}

func TestHashToPersonaEmptySlices(t *testing.T) {
	decoded, err := HashToPersona(map[string]string{
		"id":   "abc",
		"name": "Quinn",
		"role": "qa",
	})
	require.NoError(t, err)

	// Missing slice fields decode to empty slices, not nil
	assert.NotNil(t, decoded.Opinions)
	assert.NotNil(t, decoded.Style)
	assert.NotNil(t, decoded.Expertise)
	assert.Empty(t, decoded.Expertise)
}

func TestHashToPersonaRejectsMalformedJSON(t *testing.T) {
	_, err := HashToPersona(map[string]string{
		"id":        "abc",
		"name":      "Quinn",
		"role":      "qa",
		"expertise": "{not json",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "expertise")
}

func TestDiscussionHashRoundTrip(t *testing.T) {
	d := validDiscussion()
	d.Round = 2
	d.Status = StatusConsensus
	d.ConsensusResult = ResultApproved
	d.CreatedAtMs = 1700000000000
	d.UpdatedAtMs = 1700000005000

	hash, err := DiscussionToHash(d)
	require.NoError(t, err)

	stringHash := make(map[string]string, len(hash))
	for k, v := range hash {
		switch val := v.(type) {
		case string:
			stringHash[k] = val
		case int:
			stringHash[k] = strconv.Itoa(val)
		case int64:
			stringHash[k] = strconv.FormatInt(val, 10)
		}
	}

	decoded, err := HashToDiscussion(stringHash)
	require.NoError(t, err)
	assert.Equal(t, d, decoded)
}

func TestHashToDiscussionRejectsBadRound(t *testing.T) {
	_, err := HashToDiscussion(map[string]string{
		"id":    "abc",
		"round": "three",
	})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "round")
}
