// Package cache holds server state fetched by the client, keyed by resource kind.
package cache

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultSize = 256

type Kind string

const (
	KindReportGroups       Kind = "report-groups"
	KindReportGroupMembers Kind = "report-group-members"
	KindSchedules          Kind = "schedules"
	KindSchedule           Kind = "schedule"
	KindReportContent      Kind = "report-content"
	KindPanels             Kind = "panels"
	KindDashboards         Kind = "dashboards"
	KindUsers              Kind = "users"
	KindStores             Kind = "stores"
	KindDatasources        Kind = "datasources"
	KindSettings           Kind = "settings"
)

// Key identifies one cached value. Param narrows the kind, e.g. a schedule id.
type Key struct {
	Kind  Kind
	Param string
}

func (k Key) String() string {
	if k.Param == "" {
		return string(k.Kind)
	}
	return fmt.Sprintf("%s/%s", k.Kind, k.Param)
}

func ReportGroupsKey() Key {
	return Key{Kind: KindReportGroups}
}

func ReportGroupMembersKey(groupID string) Key {
	return Key{Kind: KindReportGroupMembers, Param: groupID}
}

func SchedulesKey() Key {
	return Key{Kind: KindSchedules}
}

func ScheduleKey(id string) Key {
	return Key{Kind: KindSchedule, Param: id}
}

func ReportContentKey(scheduleID string) Key {
	return Key{Kind: KindReportContent, Param: scheduleID}
}

func PanelsKey() Key {
	return Key{Kind: KindPanels}
}

func UsersKey(datasourceID uint) Key {
	return Key{Kind: KindUsers, Param: fmt.Sprint(datasourceID)}
}

func StoresKey(datasourceID uint) Key {
	return Key{Kind: KindStores, Param: fmt.Sprint(datasourceID)}
}

func SettingsKey() Key {
	return Key{Kind: KindSettings}
}

type Op int

const (
	OpSet Op = iota
	OpInvalidate
)

type Event struct {
	Key Key
	Op  Op
}

type Listener func(Event)

type Cache struct {
	entries *lru.Cache[Key, any]

	mu     sync.Mutex
	nextID int
	subs   map[Kind]map[int]Listener
}

func New(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[Key, any](size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{
		entries: entries,
		subs:    make(map[Kind]map[int]Listener),
	}, nil
}

func (c *Cache) Get(key Key) (any, bool) {
	return c.entries.Get(key)
}

func (c *Cache) Set(key Key, value any) {
	c.entries.Add(key, value)
	c.notify(Event{Key: key, Op: OpSet})
}

func (c *Cache) Invalidate(key Key) {
	c.entries.Remove(key)
	c.notify(Event{Key: key, Op: OpInvalidate})
}

// InvalidateKind drops every key of kind, whatever its param.
func (c *Cache) InvalidateKind(kind Kind) {
	for _, k := range c.entries.Keys() {
		if k.Kind == kind {
			c.entries.Remove(k)
		}
	}
	c.notify(Event{Key: Key{Kind: kind}, Op: OpInvalidate})
}

// Subscribe registers fn for changes of kind. The returned func removes it.
func (c *Cache) Subscribe(kind Kind, fn Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	if c.subs[kind] == nil {
		c.subs[kind] = make(map[int]Listener)
	}
	c.subs[kind][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[kind], id)
	}
}

func (c *Cache) notify(ev Event) {
	c.mu.Lock()
	listeners := make([]Listener, 0, len(c.subs[ev.Key.Kind]))
	for _, fn := range c.subs[ev.Key.Kind] {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Lookup returns the cached value for key if it holds a T.
func Lookup[T any](c *Cache, key Key) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Fetch returns the cached T for key, loading and storing it on a miss. Errors are not cached.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	if v, ok := Lookup[T](c, key); ok {
		return v, nil
	}
	return Refetch(ctx, c, key, load)
}

// Refetch loads key from the source and replaces the cached value.
func Refetch[T any](ctx context.Context, c *Cache, key Key, load func(context.Context) (T, error)) (T, error) {
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s: %w", key, err)
	}
	c.Set(key, v)
	return v, nil
}
