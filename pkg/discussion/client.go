package discussion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Client provides instance-scoped Redis operations for the deliberation data plane.
// All keys and channels are automatically namespaced with the instance name.
// The client is thread-safe and can be used concurrently from multiple goroutines.
type Client struct {
	rdb          *redis.Client
	instanceName string
}

// NewClient creates a new discussion client for the specified instance.
// The client automatically namespaces all keys and channels with the instance name.
//
// Returns an error if instanceName is empty.
func NewClient(redisOpts *redis.Options, instanceName string) (*Client, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}

	return &Client{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
// After calling Close(), the client should not be used.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity. Useful for health checks.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PutPersona writes a persona to Redis and registers it in the active set.
// Validates the persona before writing. Writing the same persona twice is safe
// and acts as an update.
func (c *Client) PutPersona(ctx context.Context, p *Persona) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("invalid persona: %w", err)
	}

	hash, err := PersonaToHash(p)
	if err != nil {
		return fmt.Errorf("failed to serialize persona: %w", err)
	}

	key := PersonaKey(c.instanceName, p.ID)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write persona to Redis: %w", err)
	}

	if err := c.rdb.SAdd(ctx, PersonaSetKey(c.instanceName), p.ID).Err(); err != nil {
		return fmt.Errorf("failed to register persona: %w", err)
	}

	return nil
}

// GetPersona retrieves a persona by ID.
// Returns (nil, redis.Nil) if the persona doesn't exist.
// Use IsNotFound() to check for not-found errors.
func (c *Client) GetPersona(ctx context.Context, personaID string) (*Persona, error) {
	key := PersonaKey(c.instanceName, personaID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read persona from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys
	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	persona, err := HashToPersona(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize persona: %w", err)
	}

	return persona, nil
}

// RemovePersona deletes a persona and removes it from the active set.
// Removing a persona that doesn't exist is not an error.
func (c *Client) RemovePersona(ctx context.Context, personaID string) error {
	if err := c.rdb.SRem(ctx, PersonaSetKey(c.instanceName), personaID).Err(); err != nil {
		return fmt.Errorf("failed to deregister persona: %w", err)
	}

	if err := c.rdb.Del(ctx, PersonaKey(c.instanceName, personaID)).Err(); err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}

	return nil
}

// ActivePersonas retrieves all registered personas, sorted by name for
// deterministic ordering. Returns an empty slice if none are registered.
func (c *Client) ActivePersonas(ctx context.Context) ([]Persona, error) {
	ids, err := c.rdb.SMembers(ctx, PersonaSetKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list persona IDs: %w", err)
	}

	personas := make([]Persona, 0, len(ids))
	for _, id := range ids {
		p, err := c.GetPersona(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				// Stale set entry, skip
				continue
			}
			return nil, err
		}
		personas = append(personas, *p)
	}

	sort.Slice(personas, func(i, j int) bool { return personas[i].Name < personas[j].Name })

	return personas, nil
}

// CreateDiscussion writes a discussion to Redis, indexes it by (project, ref),
// and publishes an event. Validates the discussion before writing.
//
// The discussion is stored as a Redis hash at
// nightwatch:{instance}:discussion:{id}; the (project, ref) index enables
// FindOpenByRef to resume it on a subsequent trigger.
func (c *Client) CreateDiscussion(ctx context.Context, d *Discussion) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid discussion: %w", err)
	}

	hash, err := DiscussionToHash(d)
	if err != nil {
		return fmt.Errorf("failed to serialize discussion: %w", err)
	}

	key := DiscussionKey(c.instanceName, d.ID)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to write discussion to Redis: %w", err)
	}

	if err := c.rdb.SAdd(ctx, DiscussionSetKey(c.instanceName), d.ID).Err(); err != nil {
		return fmt.Errorf("failed to register discussion: %w", err)
	}

	refKey := DiscussionByRefKey(c.instanceName, d.ProjectPath, d.TriggerRef)
	if err := c.rdb.Set(ctx, refKey, d.ID, 0).Err(); err != nil {
		return fmt.Errorf("failed to index discussion by ref: %w", err)
	}

	return c.publishDiscussion(ctx, d)
}

// GetDiscussion retrieves a discussion by ID.
// Returns (nil, redis.Nil) if the discussion doesn't exist. A caller holding a
// discussion ID that does not resolve has a defect; treat this as a hard error.
func (c *Client) GetDiscussion(ctx context.Context, discussionID string) (*Discussion, error) {
	key := DiscussionKey(c.instanceName, discussionID)

	hashData, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read discussion from Redis: %w", err)
	}

	if len(hashData) == 0 {
		return nil, redis.Nil
	}

	d, err := HashToDiscussion(hashData)
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize discussion: %w", err)
	}

	return d, nil
}

// UpdateDiscussion replaces an existing discussion with new data (full HSET
// replacement) and publishes an event. Used by the engine to advance rounds
// and record terminal state. Validates the discussion before writing.
func (c *Client) UpdateDiscussion(ctx context.Context, d *Discussion) error {
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid discussion: %w", err)
	}

	hash, err := DiscussionToHash(d)
	if err != nil {
		return fmt.Errorf("failed to serialize discussion: %w", err)
	}

	key := DiscussionKey(c.instanceName, d.ID)
	if err := c.rdb.HSet(ctx, key, hash).Err(); err != nil {
		return fmt.Errorf("failed to update discussion in Redis: %w", err)
	}

	return c.publishDiscussion(ctx, d)
}

// FindOpenByRef looks up the discussion indexed under (projectPath, ref) and
// returns it if it is still open. Returns (nil, redis.Nil) when no discussion
// is indexed or the indexed discussion is terminal.
func (c *Client) FindOpenByRef(ctx context.Context, projectPath, ref string) (*Discussion, error) {
	refKey := DiscussionByRefKey(c.instanceName, projectPath, ref)

	id, err := c.rdb.Get(ctx, refKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, redis.Nil
		}
		return nil, fmt.Errorf("failed to read discussion index: %w", err)
	}

	d, err := c.GetDiscussion(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.Status.Terminal() {
		return nil, redis.Nil
	}

	return d, nil
}

// ListDiscussions retrieves all discussions, newest first.
func (c *Client) ListDiscussions(ctx context.Context) ([]Discussion, error) {
	ids, err := c.rdb.SMembers(ctx, DiscussionSetKey(c.instanceName)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list discussion IDs: %w", err)
	}

	discussions := make([]Discussion, 0, len(ids))
	for _, id := range ids {
		d, err := c.GetDiscussion(ctx, id)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		discussions = append(discussions, *d)
	}

	sort.Slice(discussions, func(i, j int) bool {
		return discussions[i].CreatedAtMs > discussions[j].CreatedAtMs
	})

	return discussions, nil
}

// publishDiscussion publishes the full discussion JSON to the events channel.
func (c *Client) publishDiscussion(ctx context.Context, d *Discussion) error {
	discussionJSON, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal discussion for event: %w", err)
	}

	channel := DiscussionEventsChannel(c.instanceName)
	if err := c.rdb.Publish(ctx, channel, discussionJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish discussion event: %w", err)
	}

	return nil
}

// Subscription represents an active Pub/Sub subscription to discussion events.
// Caller must call Close() when done to clean up resources.
// Subscriptions deliver full discussion objects via the Events() channel.
type Subscription struct {
	events <-chan *Discussion
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of discussion events.
// The channel will be closed when the subscription is closed or the context is cancelled.
func (s *Subscription) Events() <-chan *Discussion {
	return s.events
}

// Errors returns the channel of subscription errors.
// Errors include JSON unmarshaling failures and other non-fatal issues.
// The subscription continues after errors - messages are skipped.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription and cleans up resources. Implements io.Closer.
// Safe to call multiple times - subsequent calls are no-ops.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeDiscussionEvents subscribes to discussion create/update events for
// this instance. Returns a Subscription that delivers full discussion objects.
// Caller must call subscription.Close() when done.
// Context cancellation also stops the subscription.
//
// Events are delivered on a buffered channel (size 10) to prevent blocking.
// If the subscriber is too slow, events may be dropped by Redis Pub/Sub
// (at-most-once delivery).
func (c *Client) SubscribeDiscussionEvents(ctx context.Context) (*Subscription, error) {
	channel := DiscussionEventsChannel(c.instanceName)
	pubsub := c.rdb.Subscribe(ctx, channel)

	eventsChan := make(chan *Discussion, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var d Discussion
				if err := json.Unmarshal([]byte(msg.Payload), &d); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal discussion event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &d:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
// Use this to check if GetPersona, GetDiscussion or FindOpenByRef returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
