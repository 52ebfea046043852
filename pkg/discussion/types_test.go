package discussion

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validPersona() *Persona {
	return &Persona{
		ID:        uuid.New().String(),
		Name:      "Marcus",
		Role:      "senior security reviewer",
		Opinions:  []string{"assume every input is hostile"},
		Style:     []string{"terse"},
		Expertise: []string{"appsec", "auth"},
		Provider:  "claude",
		Model:     "sonnet",
	}
}

func validDiscussion() *Discussion {
	return &Discussion{
		ID:           uuid.New().String(),
		ProjectPath:  "/srv/projects/night-watch",
		TriggerType:  TriggerPRReview,
		TriggerRef:   "42",
		ChannelID:    "C123",
		ThreadTS:     "1700000000.000100",
		Status:       StatusActive,
		Round:        0,
		Participants: []string{uuid.New().String()},
	}
}

func TestPersonaValidate(t *testing.T) {
	t.Run("accepts valid persona", func(t *testing.T) {
		assert.NoError(t, validPersona().Validate())
	})

	t.Run("rejects non-UUID id", func(t *testing.T) {
		p := validPersona()
		p.ID = "not-a-uuid"
		err := p.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid persona ID")
	})

	t.Run("rejects empty name", func(t *testing.T) {
		p := validPersona()
		p.Name = ""
		assert.Error(t, p.Validate())
	})

	t.Run("rejects empty role", func(t *testing.T) {
		p := validPersona()
		p.Role = ""
		assert.Error(t, p.Validate())
	})
}

func TestTriggerTypeValidate(t *testing.T) {
	for _, tt := range []TriggerType{
		TriggerPRReview, TriggerBuildFailure, TriggerPRDKickoff,
		TriggerCodeWatch, TriggerIssueReview,
	} {
		assert.NoError(t, tt.Validate(), "trigger type %q should be valid", tt)
	}

	assert.Error(t, TriggerType("deploy").Validate())
	assert.Error(t, TriggerType("").Validate())
}

func TestTriggerValidate(t *testing.T) {
	t.Run("accepts valid trigger", func(t *testing.T) {
		trig := &Trigger{
			Type:        TriggerBuildFailure,
			ProjectPath: "/srv/projects/api",
			Ref:         "build-991",
			Context:     "compile error in handler.go",
		}
		assert.NoError(t, trig.Validate())
	})

	t.Run("rejects missing project path", func(t *testing.T) {
		trig := &Trigger{Type: TriggerPRReview, Ref: "42"}
		assert.Error(t, trig.Validate())
	})

	t.Run("rejects missing ref", func(t *testing.T) {
		trig := &Trigger{Type: TriggerPRReview, ProjectPath: "/srv/projects/api"}
		assert.Error(t, trig.Validate())
	})
}

func TestStatusValidate(t *testing.T) {
	for _, s := range []Status{StatusActive, StatusConsensus, StatusBlocked, StatusClosed} {
		assert.NoError(t, s.Validate(), "status %q should be valid", s)
	}
	assert.Error(t, Status("paused").Validate())
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, StatusClosed.Terminal())
	assert.False(t, StatusActive.Terminal())
	assert.False(t, StatusConsensus.Terminal())
	assert.False(t, StatusBlocked.Terminal())
}

func TestConsensusResultValidate(t *testing.T) {
	for _, r := range []ConsensusResult{"", ResultApproved, ResultChangesRequested, ResultHumanNeeded} {
		assert.NoError(t, r.Validate(), "result %q should be valid", r)
	}
	assert.Error(t, ConsensusResult("maybe").Validate())
}

func TestDiscussionValidate(t *testing.T) {
	t.Run("accepts valid discussion", func(t *testing.T) {
		assert.NoError(t, validDiscussion().Validate())
	})

	t.Run("rejects non-UUID id", func(t *testing.T) {
		d := validDiscussion()
		d.ID = "123"
		assert.Error(t, d.Validate())
	})

	t.Run("rejects negative round", func(t *testing.T) {
		d := validDiscussion()
		d.Round = -1
		assert.Error(t, d.Validate())
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		d := validDiscussion()
		d.Status = "archived"
		assert.Error(t, d.Validate())
	})

	t.Run("rejects unknown consensus result", func(t *testing.T) {
		d := validDiscussion()
		d.ConsensusResult = "split"
		assert.Error(t, d.Validate())
	})
}
