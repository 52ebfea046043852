// Package threadstate tracks per-process conversational state: which inbound
// messages were already handled, which personas are on reply cooldown, which
// ad-hoc threads are bound to a persona, and which issues were recently
// reviewed. All state is in-memory and guarded by a single mutex; restarting
// the process intentionally forgets everything.
package threadstate

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jonit-dev/night-watch-cli-sub004/pkg/discussion"
)

const (
	// PersonaReplyCooldown is the minimum gap between two replies by the
	// same persona in the same thread.
	PersonaReplyCooldown = 45 * time.Second

	// AdHocThreadMemory is how long an ad-hoc thread stays bound to the
	// persona that first answered in it.
	AdHocThreadMemory = time.Hour

	// IssueReviewCooldown suppresses repeat reviews of the same issue URL.
	IssueReviewCooldown = 30 * time.Minute

	// MaxProcessedMessageKeys bounds the de-duplication window. Once full,
	// the oldest keys are evicted in insertion order.
	MaxProcessedMessageKeys = 2000
)

type cooldownKey struct {
	channel   string
	threadTS  string
	personaID string
}

type threadKey struct {
	channel  string
	threadTS string
}

type adHocBinding struct {
	personaID string
	expiresAt time.Time
}

// Manager holds all thread-local state. The zero value is not usable; use
// NewManager.
type Manager struct {
	mu sync.Mutex

	processed      map[string]struct{}
	processedOrder []string

	personaCooldowns map[cooldownKey]time.Time
	channelActivity  map[string]time.Time
	adHocBindings    map[threadKey]adHocBinding
	issueReviews     map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// NewManager returns an empty state manager.
func NewManager() *Manager {
	return &Manager{
		processed:        make(map[string]struct{}),
		personaCooldowns: make(map[cooldownKey]time.Time),
		channelActivity:  make(map[string]time.Time),
		adHocBindings:    make(map[threadKey]adHocBinding),
		issueReviews:     make(map[string]time.Time),
		now:              time.Now,
	}
}

// RememberMessageKey records a message key and reports whether it was new.
// The first call for a key returns true; repeats return false until the key
// falls out of the bounded window.
func (m *Manager) RememberMessageKey(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, dup := m.processed[key]; dup {
		return false
	}

	m.processed[key] = struct{}{}
	m.processedOrder = append(m.processedOrder, key)

	for len(m.processedOrder) > MaxProcessedMessageKeys {
		evicted := m.processedOrder[0]
		m.processedOrder = m.processedOrder[1:]
		delete(m.processed, evicted)
	}

	return true
}

// IsPersonaOnCooldown reports whether the persona replied in this thread
// within the cooldown window.
func (m *Manager) IsPersonaOnCooldown(channel, threadTS, personaID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.personaCooldowns[cooldownKey{channel, threadTS, personaID}]
	if !ok {
		return false
	}

	return m.now().Sub(last) < PersonaReplyCooldown
}

// MarkPersonaReply records that the persona just replied in this thread,
// starting its cooldown.
func (m *Manager) MarkPersonaReply(channel, threadTS, personaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.personaCooldowns[cooldownKey{channel, threadTS, personaID}] = m.now()
}

// MarkChannelActivity records the latest bot activity in a channel.
func (m *Manager) MarkChannelActivity(channel string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.channelActivity[channel] = m.now()
}

// LastChannelActivity returns when the bot last posted in a channel, or a
// zero time if it never has.
func (m *Manager) LastChannelActivity(channel string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.channelActivity[channel]
}

// RememberAdHocThreadPersona binds an ad-hoc thread to a persona so later
// messages in that thread get the same voice. Rebinding resets the timer.
func (m *Manager) RememberAdHocThreadPersona(channel, threadTS, personaID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.adHocBindings[threadKey{channel, threadTS}] = adHocBinding{
		personaID: personaID,
		expiresAt: m.now().Add(AdHocThreadMemory),
	}
}

// RememberedAdHocPersona returns the persona bound to an ad-hoc thread, or ""
// when there is no live binding. Expired bindings are deleted on read.
func (m *Manager) RememberedAdHocPersona(channel, threadTS string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := threadKey{channel, threadTS}
	binding, ok := m.adHocBindings[key]
	if !ok {
		return ""
	}
	if !m.now().Before(binding.expiresAt) {
		delete(m.adHocBindings, key)
		return ""
	}

	return binding.personaID
}

// IsIssueOnReviewCooldown reports whether the issue URL was reviewed within
// the cooldown window. URLs are compared verbatim, no normalization.
func (m *Manager) IsIssueOnReviewCooldown(issueURL string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	last, ok := m.issueReviews[issueURL]
	if !ok {
		return false
	}

	return m.now().Sub(last) < IssueReviewCooldown
}

// MarkIssueReviewed records that the issue URL was just reviewed.
func (m *Manager) MarkIssueReviewed(issueURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.issueReviews[issueURL] = m.now()
}

// PickRandomPersona picks a random persona that is not on cooldown in the
// given thread. When every persona is on cooldown it falls back to the full
// roster so the thread never goes silent. Returns nil only for an empty
// roster.
func (m *Manager) PickRandomPersona(channel, threadTS string, personas []discussion.Persona) *discussion.Persona {
	if len(personas) == 0 {
		return nil
	}

	var available []int
	for i := range personas {
		if !m.IsPersonaOnCooldown(channel, threadTS, personas[i].ID) {
			available = append(available, i)
		}
	}

	if len(available) == 0 {
		return &personas[rand.Intn(len(personas))]
	}

	return &personas[available[rand.Intn(len(available))]]
}

// FindPersonaByName returns the roster persona with a case-insensitive name
// match, or nil.
func (m *Manager) FindPersonaByName(personas []discussion.Persona, name string) *discussion.Persona {
	want := strings.ToLower(strings.TrimSpace(name))
	if want == "" {
		return nil
	}

	for i := range personas {
		if strings.ToLower(personas[i].Name) == want {
			return &personas[i]
		}
	}

	return nil
}
