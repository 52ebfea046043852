// Package discussion provides type-safe Go definitions and Redis schema patterns
// for the night-watch deliberation data plane. Personas, triggers and discussions
// are the shared state through which all night-watch components (listener, engine,
// CLI) interact via well-defined data structures stored in Redis.
//
// All Redis keys and channels are namespaced by instance name to enable multiple
// night-watch instances to safely coexist on a single Redis server.
package discussion

import (
	"fmt"

	"github.com/google/uuid"
)

// Persona represents a simulated participant in a deliberation: an identity plus
// a behavioral profile. Personas are owned by the repository; the engine treats
// each read as an immutable snapshot for the duration of one operation.
type Persona struct {
	ID        string   `json:"id"`        // UUID - unique identifier for this persona
	Name      string   `json:"name"`      // Display name used in chat and mention resolution
	Role      string   `json:"role"`      // Free-text role (e.g. "senior security reviewer")
	Opinions  []string `json:"opinions"`  // Worldview statements folded into the system prompt
	Style     []string `json:"style"`     // Tone and style rules folded into the system prompt
	Expertise []string `json:"expertise"` // Declared skill areas, used for relevance scoring
	Provider  string   `json:"provider"`  // Contribution generator backend ("claude", "codex", ...)
	Model     string   `json:"model"`     // Model identifier passed to the generator
}

// TriggerType identifies the external signal that starts or continues a deliberation.
type TriggerType string

const (
	// TriggerPRReview starts a review discussion for an opened pull request
	TriggerPRReview TriggerType = "pr_review"

	// TriggerBuildFailure starts a triage discussion for a failed build
	TriggerBuildFailure TriggerType = "build_failure"

	// TriggerPRDKickoff starts a planning discussion for a roadmap item
	TriggerPRDKickoff TriggerType = "prd_kickoff"

	// TriggerCodeWatch starts a discussion about a suspicious code pattern
	TriggerCodeWatch TriggerType = "code_watch"

	// TriggerIssueReview starts a triage discussion for a tracked issue
	TriggerIssueReview TriggerType = "issue_review"
)

// Trigger is the transient input to the deliberation engine. It is constructed
// by a caller (listener, watcher, CLI) and consumed exactly once.
type Trigger struct {
	Type           TriggerType `json:"type"`
	ProjectPath    string      `json:"project_path"`              // Local checkout the discussion is about
	Ref            string      `json:"ref"`                       // PR number, PRD name or issue reference
	Context        string      `json:"context"`                   // Free-text context for prompt grounding
	PRURL          string      `json:"pr_url,omitempty"`          // Optional direct link to the PR
	ChannelID      string      `json:"channel_id,omitempty"`      // Chat channel override
	OpeningMessage string      `json:"opening_message,omitempty"` // Override for the thread-opening post
	ThreadTS       string      `json:"thread_ts,omitempty"`       // Existing thread to continue, if any
}

// Status defines the lifecycle state of a discussion.
// Discussions progress active → consensus|blocked → closed.
type Status string

const (
	// StatusActive indicates the discussion is still running rounds
	StatusActive Status = "active"

	// StatusConsensus indicates a persona signalled an approve/changes outcome
	StatusConsensus Status = "consensus"

	// StatusBlocked indicates the discussion needs a human to proceed
	StatusBlocked Status = "blocked"

	// StatusClosed indicates the discussion is terminal
	StatusClosed Status = "closed"
)

// ConsensusResult is the terminal classification of a closed discussion.
// Empty until a persona's utterance is interpreted as a consensus signal.
type ConsensusResult string

const (
	// ResultApproved indicates the personas converged on approval
	ResultApproved ConsensusResult = "approved"

	// ResultChangesRequested indicates the personas converged on requesting changes
	ResultChangesRequested ConsensusResult = "changes_requested"

	// ResultHumanNeeded indicates the personas escalated to a human
	ResultHumanNeeded ConsensusResult = "human_needed"
)

// Discussion is the stateful record of one ongoing or concluded deliberation.
// Created on the first trigger for a (project, ref) pair lacking an open
// discussion, mutated once per round, terminal once Status is closed.
type Discussion struct {
	ID              string          `json:"id"`               // UUID - unique identifier for this discussion
	ProjectPath     string          `json:"project_path"`     // Project the discussion is about
	TriggerType     TriggerType     `json:"trigger_type"`     // Signal that opened the discussion
	TriggerRef      string          `json:"trigger_ref"`      // PR number / PRD name / issue reference
	ChannelID       string          `json:"channel_id"`       // Chat channel hosting the thread
	ThreadTS        string          `json:"thread_ts"`        // Thread timestamp of the opening post
	Status          Status          `json:"status"`           // Current lifecycle state
	Round           int             `json:"round"`            // Completed rounds, monotonic, never exceeds MaxRounds
	Participants    []string        `json:"participants"`     // Persona IDs taking part (insertion order irrelevant)
	ConsensusResult ConsensusResult `json:"consensus_result"` // Terminal classification, empty until signalled
	CreatedAtMs     int64           `json:"created_at_ms"`    // Unix timestamp in milliseconds
	UpdatedAtMs     int64           `json:"updated_at_ms"`    // Unix timestamp in milliseconds
}

// TranscriptEntry is one persona contribution appended to a discussion's
// transcript. Entries are ordered by round in a Redis ZSET.
type TranscriptEntry struct {
	Round      int    `json:"round"`
	PersonaID  string `json:"persona_id"`
	Persona    string `json:"persona"` // Display name at the time of posting
	Text       string `json:"text"`
	PostedAtMs int64  `json:"posted_at_ms"`
}

// Validate checks if the Persona has valid field values.
// Returns an error if any validation fails.
func (p *Persona) Validate() error {
	if !isValidUUID(p.ID) {
		return fmt.Errorf("invalid persona ID: not a valid UUID")
	}

	if p.Name == "" {
		return fmt.Errorf("persona name cannot be empty")
	}

	if p.Role == "" {
		return fmt.Errorf("persona role cannot be empty")
	}

	return nil
}

// Validate checks if the TriggerType is a valid enum value.
func (t TriggerType) Validate() error {
	switch t {
	case TriggerPRReview, TriggerBuildFailure, TriggerPRDKickoff,
		TriggerCodeWatch, TriggerIssueReview:
		return nil
	default:
		return fmt.Errorf("unknown trigger type: %q", t)
	}
}

// Validate checks if the Trigger has valid field values.
func (t *Trigger) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return fmt.Errorf("invalid trigger type: %w", err)
	}

	if t.ProjectPath == "" {
		return fmt.Errorf("trigger project path cannot be empty")
	}

	if t.Ref == "" {
		return fmt.Errorf("trigger ref cannot be empty")
	}

	return nil
}

// Validate checks if the Status is a valid enum value.
func (s Status) Validate() error {
	switch s {
	case StatusActive, StatusConsensus, StatusBlocked, StatusClosed:
		return nil
	default:
		return fmt.Errorf("unknown status: %q", s)
	}
}

// Terminal reports whether the status admits no further rounds.
func (s Status) Terminal() bool {
	return s == StatusClosed
}

// Validate checks if the ConsensusResult is a valid enum value.
// The empty string is valid: it means no consensus signal was observed.
func (r ConsensusResult) Validate() error {
	switch r {
	case "", ResultApproved, ResultChangesRequested, ResultHumanNeeded:
		return nil
	default:
		return fmt.Errorf("unknown consensus result: %q", r)
	}
}

// Validate checks if the Discussion has valid field values.
func (d *Discussion) Validate() error {
	if !isValidUUID(d.ID) {
		return fmt.Errorf("invalid discussion ID: not a valid UUID")
	}

	if d.ProjectPath == "" {
		return fmt.Errorf("discussion project path cannot be empty")
	}

	if err := d.TriggerType.Validate(); err != nil {
		return fmt.Errorf("invalid trigger type: %w", err)
	}

	if d.TriggerRef == "" {
		return fmt.Errorf("discussion trigger ref cannot be empty")
	}

	if err := d.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	if d.Round < 0 {
		return fmt.Errorf("invalid round: must be >= 0, got %d", d.Round)
	}

	if err := d.ConsensusResult.Validate(); err != nil {
		return fmt.Errorf("invalid consensus result: %w", err)
	}

	return nil
}

// AddParticipant records a persona as a discussion participant. Adding the
// same persona twice is a no-op.
func (d *Discussion) AddParticipant(personaID string) {
	for _, id := range d.Participants {
		if id == personaID {
			return
		}
	}
	d.Participants = append(d.Participants, personaID)
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
