package discussion

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Complex fields like
// string slices are JSON-encoded into single hash fields. This provides a
// balance between queryability (individual fields) and flexibility.

// PersonaToHash converts a Persona struct to a Redis hash format.
// Slice fields (opinions, style, expertise) are JSON-encoded.
func PersonaToHash(p *Persona) (map[string]interface{}, error) {
	opinionsJSON, err := json.Marshal(p.Opinions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal opinions: %w", err)
	}

	styleJSON, err := json.Marshal(p.Style)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal style: %w", err)
	}

	expertiseJSON, err := json.Marshal(p.Expertise)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal expertise: %w", err)
	}

	hash := map[string]interface{}{
		"id":        p.ID,
		"name":      p.Name,
		"role":      p.Role,
		"opinions":  string(opinionsJSON),
		"style":     string(styleJSON),
		"expertise": string(expertiseJSON),
		"provider":  p.Provider,
		"model":     p.Model,
	}

	return hash, nil
}

// HashToPersona converts a Redis hash to a Persona struct.
// JSON fields are decoded back to Go types.
func HashToPersona(hash map[string]string) (*Persona, error) {
	opinions, err := decodeStringSlice(hash["opinions"], "opinions")
	if err != nil {
		return nil, err
	}

	style, err := decodeStringSlice(hash["style"], "style")
	if err != nil {
		return nil, err
	}

	expertise, err := decodeStringSlice(hash["expertise"], "expertise")
	if err != nil {
		return nil, err
	}

	persona := &Persona{
		ID:        hash["id"],
		Name:      hash["name"],
		Role:      hash["role"],
		Opinions:  opinions,
		Style:     style,
		Expertise: expertise,
		Provider:  hash["provider"],
		Model:     hash["model"],
	}

	return persona, nil
}

// DiscussionToHash converts a Discussion struct to a Redis hash format.
// The participants array is JSON-encoded.
func DiscussionToHash(d *Discussion) (map[string]interface{}, error) {
	participantsJSON, err := json.Marshal(d.Participants)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal participants: %w", err)
	}

	hash := map[string]interface{}{
		"id":               d.ID,
		"project_path":     d.ProjectPath,
		"trigger_type":     string(d.TriggerType),
		"trigger_ref":      d.TriggerRef,
		"channel_id":       d.ChannelID,
		"thread_ts":        d.ThreadTS,
		"status":           string(d.Status),
		"round":            d.Round,
		"participants":     string(participantsJSON),
		"consensus_result": string(d.ConsensusResult),
		"created_at_ms":    d.CreatedAtMs,
		"updated_at_ms":    d.UpdatedAtMs,
	}

	return hash, nil
}

// HashToDiscussion converts a Redis hash to a Discussion struct.
// JSON fields are decoded back to Go types.
func HashToDiscussion(hash map[string]string) (*Discussion, error) {
	round, err := strconv.Atoi(hash["round"])
	if err != nil {
		return nil, fmt.Errorf("invalid round field: %w", err)
	}

	participants, err := decodeStringSlice(hash["participants"], "participants")
	if err != nil {
		return nil, err
	}

	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	updatedAtMs, _ := strconv.ParseInt(hash["updated_at_ms"], 10, 64)

	d := &Discussion{
		ID:              hash["id"],
		ProjectPath:     hash["project_path"],
		TriggerType:     TriggerType(hash["trigger_type"]),
		TriggerRef:      hash["trigger_ref"],
		ChannelID:       hash["channel_id"],
		ThreadTS:        hash["thread_ts"],
		Status:          Status(hash["status"]),
		Round:           round,
		Participants:    participants,
		ConsensusResult: ConsensusResult(hash["consensus_result"]),
		CreatedAtMs:     createdAtMs,
		UpdatedAtMs:     updatedAtMs,
	}

	return d, nil
}

// decodeStringSlice decodes a JSON-encoded string slice hash field.
// Returns an empty slice (never nil) for missing or empty fields, for consistency.
func decodeStringSlice(raw, field string) ([]string, error) {
	var out []string
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", field, err)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
