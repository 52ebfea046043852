package discussion

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name to enable
// multiple night-watch instances to safely coexist on a single Redis server.
//
// Key pattern: nightwatch:{instance_name}:{entity}:{id}
// Channel pattern: nightwatch:{instance_name}:{event_type}_events

// PersonaKey returns the Redis key for a persona.
// Pattern: nightwatch:{instance_name}:persona:{persona_id}
func PersonaKey(instanceName, personaID string) string {
	return fmt.Sprintf("nightwatch:%s:persona:%s", instanceName, personaID)
}

// PersonaSetKey returns the Redis key for the set of active persona IDs.
// Pattern: nightwatch:{instance_name}:personas
func PersonaSetKey(instanceName string) string {
	return fmt.Sprintf("nightwatch:%s:personas", instanceName)
}

// DiscussionKey returns the Redis key for a discussion.
// Pattern: nightwatch:{instance_name}:discussion:{discussion_id}
func DiscussionKey(instanceName, discussionID string) string {
	return fmt.Sprintf("nightwatch:%s:discussion:%s", instanceName, discussionID)
}

// DiscussionSetKey returns the Redis key for the set of all discussion IDs.
// Pattern: nightwatch:{instance_name}:discussions
func DiscussionSetKey(instanceName string) string {
	return fmt.Sprintf("nightwatch:%s:discussions", instanceName)
}

// DiscussionByRefKey returns the Redis key for the (project, ref) -> discussion index.
// This enables the engine to resume the open discussion for a trigger instead of
// opening a duplicate.
// Pattern: nightwatch:{instance_name}:discussion_by_ref:{project_path}|{ref}
func DiscussionByRefKey(instanceName, projectPath, ref string) string {
	return fmt.Sprintf("nightwatch:%s:discussion_by_ref:%s|%s", instanceName, projectPath, ref)
}

// TranscriptKey returns the Redis key for a discussion's transcript ZSET.
// Pattern: nightwatch:{instance_name}:discussion:{discussion_id}:transcript
func TranscriptKey(instanceName, discussionID string) string {
	return fmt.Sprintf("nightwatch:%s:discussion:%s:transcript", instanceName, discussionID)
}

// DiscussionEventsChannel returns the Pub/Sub channel name for discussion events.
// Every create and update publishes the full discussion JSON here for real-time
// monitoring (`nightwatch watch`).
// Pattern: nightwatch:{instance_name}:discussion_events
func DiscussionEventsChannel(instanceName string) string {
	return fmt.Sprintf("nightwatch:%s:discussion_events", instanceName)
}
