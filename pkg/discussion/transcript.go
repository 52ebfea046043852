package discussion

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Transcript utilities
//
// A discussion's transcript groups the contributions posted across its rounds.
// Transcripts are stored in Redis as ZSETs where:
// - Key: nightwatch:{instance_name}:discussion:{discussion_id}:transcript
// - Members: JSON-encoded TranscriptEntry values
// - Score: the entry's round number (as float64)
//
// This enables efficient retrieval of the full history in round order and of
// the most recent contribution.

// TranscriptScore converts a round number to a Redis ZSET score.
// Round numbers start at 1 and increment sequentially.
func TranscriptScore(round int) float64 {
	return float64(round)
}

// RoundFromScore converts a Redis ZSET score back to a round number.
func RoundFromScore(score float64) int {
	return int(score)
}

// AppendTranscript adds a contribution to a discussion's transcript.
// Uses ZADD with score=round to maintain sorted order.
func (c *Client) AppendTranscript(ctx context.Context, discussionID string, entry *TranscriptEntry) error {
	entryJSON, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}

	key := TranscriptKey(c.instanceName, discussionID)
	z := redis.Z{
		Score:  TranscriptScore(entry.Round),
		Member: string(entryJSON),
	}

	if err := c.rdb.ZAdd(ctx, key, z).Err(); err != nil {
		return fmt.Errorf("failed to append transcript entry: %w", err)
	}

	return nil
}

// Transcript retrieves a discussion's full transcript in round order.
// Returns an empty slice if no contributions have been posted.
func (c *Client) Transcript(ctx context.Context, discussionID string) ([]TranscriptEntry, error) {
	key := TranscriptKey(c.instanceName, discussionID)

	members, err := c.rdb.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	entries := make([]TranscriptEntry, 0, len(members))
	for _, member := range members {
		var entry TranscriptEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transcript entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// LatestContribution retrieves the most recent transcript entry.
// Returns (nil, redis.Nil) if the transcript is empty.
func (c *Client) LatestContribution(ctx context.Context, discussionID string) (*TranscriptEntry, error) {
	key := TranscriptKey(c.instanceName, discussionID)

	results, err := c.rdb.ZRevRangeWithScores(ctx, key, 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read latest contribution: %w", err)
	}

	if len(results) == 0 {
		return nil, redis.Nil
	}

	var entry TranscriptEntry
	if err := json.Unmarshal([]byte(results[0].Member.(string)), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript entry: %w", err)
	}

	return &entry, nil
}
