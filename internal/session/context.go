// Package session holds the per-conversation state shared by the analysis and
// plan workers: remembered entities, user location, preferences and the tool
// result cache.
package session

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"travel-orchestrator/internal/models"
)

// MaxCachedResults bounds the tool cache; the oldest entry is evicted first.
const MaxCachedResults = 64

// Preferences are stated by the user and outlive a single message.
type Preferences struct {
	TravelStyle string          `json:"travelStyle,omitempty"`
	Language    models.Language `json:"language,omitempty"`
}

// Remembered entities carried over from earlier messages.
type Remembered struct {
	Origin               string `json:"origin,omitempty"`
	Destination          string `json:"destination,omitempty"`
	Date                 string `json:"date,omitempty"`
	Time                 string `json:"time,omitempty"`
	RequiresUserLocation bool   `json:"requiresUserLocation,omitempty"`
}

// CacheEntry is one stored tool call.
type CacheEntry struct {
	Key      string            `json:"key"`
	Tool     string            `json:"tool"`
	Params   json.RawMessage   `json:"params"`
	Result   models.ToolResult `json:"result"`
	StoredAt time.Time         `json:"storedAt"`
}

// State is the serialisable form of a ConversationContext.
type State struct {
	SessionID    string           `json:"sessionId"`
	Entities     Remembered       `json:"entities"`
	UserLocation *models.GeoPoint `json:"userLocation,omitempty"`
	Preferences  Preferences      `json:"preferences"`
	ToolCache    []CacheEntry     `json:"toolCache"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// ConversationContext is safe for concurrent use. Steps of one plan write the
// cache from several goroutines.
type ConversationContext struct {
	mu    sync.RWMutex
	state State
	index map[string]int
}

// New returns an empty context for sessionID.
func New(sessionID string) *ConversationContext {
	return &ConversationContext{
		state: State{SessionID: sessionID, ToolCache: []CacheEntry{}, UpdatedAt: time.Now().UTC()},
		index: map[string]int{},
	}
}

// FromState rebuilds a context from its stored form.
func FromState(s State) *ConversationContext {
	if s.ToolCache == nil {
		s.ToolCache = []CacheEntry{}
	}
	c := &ConversationContext{state: s}
	c.reindex()
	return c
}

func (c *ConversationContext) reindex() {
	c.index = make(map[string]int, len(c.state.ToolCache))
	for i, e := range c.state.ToolCache {
		c.index[e.Key] = i
	}
}

func (c *ConversationContext) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.SessionID
}

// Snapshot returns a deep copy of the current state.
func (c *ConversationContext) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.state
	s.ToolCache = append([]CacheEntry(nil), c.state.ToolCache...)
	if c.state.UserLocation != nil {
		loc := *c.state.UserLocation
		s.UserLocation = &loc
	}
	return s
}

func (c *ConversationContext) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Snapshot())
}

func (c *ConversationContext) UnmarshalJSON(data []byte) error {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s.ToolCache == nil {
		s.ToolCache = []CacheEntry{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.reindex()
	return nil
}

// Entities returns the remembered entities.
func (c *ConversationContext) Entities() Remembered {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Entities
}

// RememberEntities stores the non-empty fields of bag. The USER_LOCATION
// sentinel is never stored as a place; the flag is recorded instead. A bag
// naming both places clears the flag.
func (c *ConversationContext) RememberEntities(bag models.EntityBag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := &c.state.Entities
	if concretePlace(bag.Origin) && concretePlace(bag.Destination) && !bag.RequiresUserLocation {
		e.RequiresUserLocation = false
	}
	set := func(dst *string, v string) {
		switch v {
		case "":
		case models.UserLocation:
			e.RequiresUserLocation = true
		default:
			*dst = v
		}
	}
	set(&e.Origin, bag.Origin)
	set(&e.Destination, bag.Destination)
	set(&e.Date, bag.Date)
	set(&e.Time, bag.Time)
	if bag.RequiresUserLocation {
		e.RequiresUserLocation = true
	}
	c.touch()
}

func concretePlace(v string) bool {
	return v != "" && v != models.UserLocation
}

func (c *ConversationContext) UserLocation() *models.GeoPoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state.UserLocation == nil {
		return nil
	}
	loc := *c.state.UserLocation
	return &loc
}

func (c *ConversationContext) SetUserLocation(p *models.GeoPoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		c.state.UserLocation = nil
	} else {
		loc := *p
		c.state.UserLocation = &loc
	}
	c.touch()
}

func (c *ConversationContext) Preferences() Preferences {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Preferences
}

// MergePreferences overwrites the fields set in p.
func (c *ConversationContext) MergePreferences(p Preferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p.TravelStyle != "" {
		c.state.Preferences.TravelStyle = p.TravelStyle
	}
	if p.Language != "" {
		c.state.Preferences.Language = p.Language
	}
	c.touch()
}

// CacheKey is the tool name joined with the serialised params.
func CacheKey(toolName string, params models.ToolParams) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("serialize %s params: %w", toolName, err)
	}
	return toolName + ":" + string(raw), nil
}

// GetCachedResult returns the stored result of an identical earlier call.
// Params must match exactly.
func (c *ConversationContext) GetCachedResult(toolName string, params models.ToolParams) (models.ToolResult, bool) {
	key, err := CacheKey(toolName, params)
	if err != nil {
		return models.ToolResult{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[key]
	if !ok {
		return models.ToolResult{}, false
	}
	return c.state.ToolCache[i].Result, true
}

// CacheToolResult stores result under toolName and params, replacing an
// identical earlier call.
func (c *ConversationContext) CacheToolResult(toolName string, params models.ToolParams, result models.ToolResult) error {
	key, err := CacheKey(toolName, params)
	if err != nil {
		return err
	}
	entry := CacheEntry{
		Key:      key,
		Tool:     toolName,
		Params:   json.RawMessage(key[len(toolName)+1:]),
		Result:   result,
		StoredAt: time.Now().UTC(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.index[key]; ok {
		c.state.ToolCache[i] = entry
		c.touch()
		return nil
	}
	c.state.ToolCache = append(c.state.ToolCache, entry)
	if over := len(c.state.ToolCache) - MaxCachedResults; over > 0 {
		c.state.ToolCache = append([]CacheEntry(nil), c.state.ToolCache[over:]...)
		c.reindex()
	} else {
		c.index[key] = len(c.state.ToolCache) - 1
	}
	c.touch()
	return nil
}

// CachedResults returns the number of stored tool calls.
func (c *ConversationContext) CachedResults() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.state.ToolCache)
}

func (c *ConversationContext) touch() {
	c.state.UpdatedAt = time.Now().UTC()
}
