package redpipe

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"
)

// DefaultKeyName is the primary key field of a struct unless StructType.KeyName
// says otherwise.
const DefaultKeyName = "_key"

// Selection picks the hash members a struct loads.
type Selection struct {
	all     bool
	defined bool
	names   []string
}

var (
	// SelectAll loads every member with HGETALL.
	SelectAll = Selection{all: true}
	// SelectDefined loads the members named in StructType.Fields.
	SelectDefined = Selection{defined: true}
)

// SelectFields loads only the named members.
func SelectFields(names ...string) Selection {
	return Selection{names: append([]string(nil), names...)}
}

func (s Selection) isZero() bool {
	return !s.all && !s.defined && s.names == nil
}

func (s Selection) String() string {
	switch {
	case s.all:
		return "all"
	case s.defined:
		return "defined"
	default:
		return fmt.Sprint(s.names)
	}
}

// StructType describes a family of structs stored as redis hashes under one
// keyspace.
//
//	var Users = &redpipe.StructType{
//		Name:     "User",
//		KeyName:  "user_id",
//		Fields:   map[string]redpipe.Field{"age": redpipe.IntegerField},
//		Required: []string{"name"},
//	}
type StructType struct {
	// Name labels instances in String. It is also the keyspace prefix when
	// Keyspace is empty.
	Name string
	// Keyspace overrides the redis key prefix.
	Keyspace string
	// Connection is the connection name. Empty means the pipeline's.
	Connection string
	// Template formats keys; defaults to DefaultKeyspaceTemplate.
	Template string
	// KeyName is the name of the primary key field; defaults to DefaultKeyName.
	KeyName string
	// Fields holds per-member codecs. Members without one use Value.
	Fields map[string]Field
	// Value is the codec for members not listed in Fields; defaults to TextField.
	Value Field
	// Required members must be present on From and can never be removed.
	Required []string
	// DefaultFields is what New and Load read when no selection is given.
	// The zero value means SelectAll.
	DefaultFields Selection
	// TTL, when positive, is refreshed on every write.
	TTL time.Duration
	// Registry resolves connections. Nil means the default registry.
	Registry *Registry
}

func (t *StructType) keyName() string {
	if t.KeyName == "" {
		return DefaultKeyName
	}
	return t.KeyName
}

func (t *StructType) hash() Hash {
	name := t.Keyspace
	if name == "" {
		name = t.Name
	}
	return Hash{
		Keyspace: Keyspace{
			Name:       name,
			Connection: t.Connection,
			Template:   t.Template,
			Registry:   t.Registry,
		},
		Fields: t.Fields,
		Value:  t.Value,
	}
}

func (t *StructType) ops(p Pipe) HashOps {
	return t.hash().Bind(p)
}

func (t *StructType) autoExec(ctx context.Context, pipe Pipe, fn func(p Pipe) error) error {
	return autoExec(ctx, t.Registry, pipe, t.Connection, fn)
}

func (t *StructType) isRequired(field string) bool {
	for _, r := range t.Required {
		if r == field {
			return true
		}
	}
	return false
}

// RedisKey returns the redis key that stores key.
func (t *StructType) RedisKey(key string) string {
	return t.hash().RedisKey(key)
}

// Delete removes whole records by key without loading them.
func (t *StructType) Delete(ctx context.Context, pipe Pipe, keys ...string) *Future[int64] {
	var f *Future[int64]
	err := t.autoExec(ctx, pipe, func(p Pipe) error {
		f = t.ops(p).Delete(ctx, keys...)
		return nil
	})
	if err != nil && f == nil {
		return failed[int64](ctx, err)
	}
	return f
}

type structOptions struct {
	pipe   Pipe
	fields Selection
	noOp   bool
	nx     bool
}

// StructOption configures New and From.
type StructOption func(*structOptions)

// WithPipe queues the struct's reads and writes on p instead of executing
// them immediately.
func WithPipe(p Pipe) StructOption {
	return func(o *structOptions) {
		o.pipe = p
	}
}

// WithFields overrides StructType.DefaultFields for the initial load.
func WithFields(sel Selection) StructOption {
	return func(o *structOptions) {
		o.fields = sel
	}
}

// NoOp builds a local stub: nothing is read from or written to redis.
func NoOp() StructOption {
	return func(o *structOptions) {
		o.noOp = true
	}
}

// NX makes From write only members that do not exist yet.
func NX() StructOption {
	return func(o *structOptions) {
		o.nx = true
	}
}

func structOpts(opts []StructOption) structOptions {
	var o structOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Struct is a local view of one redis hash.
//
// Reads go against local data. Writes are queued on a pipeline and reach the
// local data only after that pipeline's root executed successfully.
type Struct struct {
	typ  *StructType
	key  string
	mu   sync.RWMutex
	data map[string]any
}

// New loads the record stored under key.
func (t *StructType) New(ctx context.Context, key string, opts ...StructOption) (*Struct, error) {
	o := structOpts(opts)
	s := &Struct{typ: t, key: key, data: make(map[string]any)}
	if o.noOp {
		return s, nil
	}
	if err := s.Load(ctx, o.pipe, o.fields); err != nil {
		return nil, err
	}
	return s, nil
}

// From writes data into the record named by data[KeyName] and then loads it.
// The primary key and every required member must be present.
func (t *StructType) From(ctx context.Context, data map[string]any, opts ...StructOption) (*Struct, error) {
	o := structOpts(opts)
	kn := t.keyName()

	rawKey, ok := data[kn]
	if !ok || rawKey == nil {
		return nil, ErrInvalidOperation.WithDetails("must specify primary key %s", kn)
	}
	key, ok := rawKey.(string)
	if !ok {
		key = fmt.Sprint(rawKey)
	}

	changes := make(map[string]any, len(data))
	for k, v := range data {
		if k != kn {
			changes[k] = v
		}
	}

	s := &Struct{typ: t, key: key, data: make(map[string]any)}
	if o.noOp {
		s.data = changes
		return s, nil
	}

	var missing []string
	for _, r := range t.Required {
		if _, ok := changes[r]; !ok {
			missing = append(missing, r)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, ErrInvalidOperation.WithDetails("missing required field(s): %v", missing)
	}

	err := t.autoExec(ctx, o.pipe, func(p Pipe) error {
		if err := s.update(ctx, p, changes, o.nx); err != nil {
			return err
		}
		return s.Load(ctx, p, o.fields)
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Type returns the struct's type.
func (s *Struct) Type() *StructType {
	return s.typ
}

// Key returns the primary key.
func (s *Struct) Key() string {
	return s.key
}

// Load reads members selected by sel from redis. A zero sel means the type's
// DefaultFields. Members requested by name but missing in redis are dropped
// locally.
func (s *Struct) Load(ctx context.Context, pipe Pipe, sel Selection) error {
	if sel.isZero() {
		sel = s.typ.DefaultFields
	}
	if sel.isZero() || sel.all {
		return s.loadAll(ctx, pipe)
	}

	names := sel.names
	if sel.defined {
		names = make([]string, 0, len(s.typ.Fields))
		for name := range s.typ.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
	}
	if len(names) == 0 {
		return nil
	}

	kn := s.typ.keyName()
	return s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		ref := s.typ.ops(p).HMGet(ctx, s.key, names...)
		p.OnExecute(func() {
			vals := ref.Val()
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, name := range names {
				var v any
				if i < len(vals) {
					v = vals[i]
				}
				switch {
				case v == nil:
					delete(s.data, name)
				case name != kn:
					s.data[name] = v
				}
			}
		})
		return nil
	})
}

func (s *Struct) loadAll(ctx context.Context, pipe Pipe) error {
	kn := s.typ.keyName()
	return s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		ref := s.typ.ops(p).HGetAll(ctx, s.key)
		p.OnExecute(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for name, v := range ref.Val() {
				if name != kn {
					s.data[name] = v
				}
			}
		})
		return nil
	})
}

func (s *Struct) expire(ctx context.Context, p Pipe) {
	if s.typ.TTL > 0 {
		s.typ.ops(p).Expire(ctx, s.key, s.typ.TTL)
	}
}

// Update writes changes to redis. A nil value removes that member. The local
// data follows once the pipeline executes.
func (s *Struct) Update(ctx context.Context, pipe Pipe, changes map[string]any) error {
	return s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		return s.update(ctx, p, changes, false)
	})
}

// UpdateNX is Update with HSETNX: members that already exist are left alone,
// in redis and locally.
func (s *Struct) UpdateNX(ctx context.Context, pipe Pipe, changes map[string]any) error {
	return s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		return s.update(ctx, p, changes, true)
	})
}

func (s *Struct) update(ctx context.Context, p Pipe, changes map[string]any, nx bool) error {
	if len(changes) == 0 {
		return nil
	}
	kn := s.typ.keyName()
	if _, ok := changes[kn]; ok {
		return ErrInvalidOperation.WithDetails("cannot update the redis key")
	}

	ops := s.typ.ops(p)
	var (
		deletes []string
		names   []string
	)
	local := make(map[string]any, len(changes))
	for name, v := range changes {
		if v == nil {
			deletes = append(deletes, name)
			continue
		}
		// Store locally what a later load would return.
		enc, err := ops.Encode(name, v)
		if err != nil {
			return err
		}
		dec, err := ops.Decode(name, enc)
		if err != nil {
			return err
		}
		local[name] = dec
		names = append(names, name)
	}
	sort.Strings(names)
	sort.Strings(deletes)
	if err := s.checkRemovable(deletes); err != nil {
		return err
	}

	for _, name := range names {
		name, v := name, local[name]
		if nx {
			res := ops.HSetNX(ctx, s.key, name, changes[name])
			p.OnExecute(func() {
				if res.Val() {
					s.setLocal(name, v)
				}
			})
			continue
		}
		ops.HSet(ctx, s.key, name, changes[name])
		p.OnExecute(func() { s.setLocal(name, v) })
	}

	if len(deletes) > 0 {
		s.remove(ctx, p, deletes)
	}
	s.expire(ctx, p)
	return nil
}

func (s *Struct) setLocal(name string, v any) {
	s.mu.Lock()
	s.data[name] = v
	s.mu.Unlock()
}

// Incr adds amount to an integer member and returns the HINCRBY future. The
// member is read back so the local value goes through its codec.
func (s *Struct) Incr(ctx context.Context, pipe Pipe, field string, amount int64) *Future[int64] {
	var f *Future[int64]
	err := s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		ops := s.typ.ops(p)
		f = ops.HIncrBy(ctx, s.key, field, amount)
		s.expire(ctx, p)
		ref := ops.HGet(ctx, s.key, field)
		p.OnExecute(func() {
			if v := ref.Val(); v != nil {
				s.setLocal(field, v)
			}
		})
		return nil
	})
	if f == nil {
		return failed[int64](ctx, err)
	}
	return f
}

// Decr subtracts amount from an integer member.
func (s *Struct) Decr(ctx context.Context, pipe Pipe, field string, amount int64) *Future[int64] {
	return s.Incr(ctx, pipe, field, -amount)
}

// Remove deletes members from redis and, once executed, locally. The primary
// key and required members cannot be removed.
func (s *Struct) Remove(ctx context.Context, pipe Pipe, fields ...string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.checkRemovable(fields); err != nil {
		return err
	}
	return s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		s.remove(ctx, p, fields)
		s.expire(ctx, p)
		return nil
	})
}

func (s *Struct) checkRemovable(fields []string) error {
	kn := s.typ.keyName()
	var required []string
	for _, f := range fields {
		if f == kn {
			return ErrInvalidOperation.WithDetails("cannot remove the redis key")
		}
		if s.typ.isRequired(f) {
			required = append(required, f)
		}
	}
	if len(required) > 0 {
		return ErrInvalidOperation.WithDetails("cannot remove required field(s): %v", required)
	}
	return nil
}

func (s *Struct) remove(ctx context.Context, p Pipe, fields []string) {
	s.typ.ops(p).HDel(ctx, s.key, fields...)
	p.OnExecute(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, f := range fields {
			delete(s.data, f)
		}
	})
}

// Clear deletes the whole redis hash and empties the local data.
func (s *Struct) Clear(ctx context.Context, pipe Pipe) error {
	return s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		s.typ.ops(p).Delete(ctx, s.key)
		p.OnExecute(func() {
			s.mu.Lock()
			s.data = make(map[string]any)
			s.mu.Unlock()
		})
		return nil
	})
}

// Pop removes a member from redis and returns its value, or def when it was
// not set. The future resolves after the pipeline executes. Unlike Remove it
// does not protect required fields.
func (s *Struct) Pop(ctx context.Context, pipe Pipe, field string, def any) *Future[any] {
	f := newFuture[any](statsFrom(ctx))
	err := s.typ.autoExec(ctx, pipe, func(p Pipe) error {
		ops := s.typ.ops(p)
		ref := ops.HGet(ctx, s.key, field)
		ops.HDel(ctx, s.key, field)
		s.expire(ctx, p)
		p.OnExecute(func() {
			if ref.IsNil() {
				f.Set(def)
			} else {
				f.Set(ref.Val())
			}
			s.mu.Lock()
			delete(s.data, field)
			s.mu.Unlock()
		})
		return nil
	})
	if err != nil {
		f.Fail(err)
	}
	return f
}

// Get returns a member, or def when it is not loaded.
func (s *Struct) Get(field string, def any) any {
	if v, ok := s.Lookup(field); ok {
		return v
	}
	return def
}

// Lookup returns a member and whether it is loaded. The primary key field
// always resolves to Key.
func (s *Struct) Lookup(field string) (any, bool) {
	if field == s.typ.keyName() {
		return s.key, true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[field]
	return v, ok
}

// Contains reports whether field is loaded.
func (s *Struct) Contains(field string) bool {
	_, ok := s.Lookup(field)
	return ok
}

// Keys returns the primary key name followed by the loaded members, sorted.
func (s *Struct) Keys() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)
	return append([]string{s.typ.keyName()}, names...)
}

// Item is one member of a struct.
type Item struct {
	Field string
	Value any
}

// Items returns Keys paired with their values.
func (s *Struct) Items() []Item {
	keys := s.Keys()
	items := make([]Item, 0, len(keys))
	for _, k := range keys {
		v, _ := s.Lookup(k)
		items = append(items, Item{Field: k, Value: v})
	}
	return items
}

// Map returns a copy of the loaded data including the primary key.
func (s *Struct) Map() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]any, len(s.data)+1)
	for k, v := range s.data {
		m[k] = v
	}
	m[s.typ.keyName()] = s.key
	return m
}

// Len counts loaded members plus the primary key.
func (s *Struct) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data) + 1
}

// Persisted reports whether any member besides the key is loaded.
func (s *Struct) Persisted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data) > 0
}

// Equal compares s with another *Struct or a map[string]any by content.
func (s *Struct) Equal(other any) bool {
	switch o := other.(type) {
	case *Struct:
		if o == s {
			return true
		}
		if o == nil {
			return false
		}
		return reflect.DeepEqual(s.Map(), o.Map())
	case map[string]any:
		return reflect.DeepEqual(s.Map(), o)
	default:
		return false
	}
}

// Copy writes the loaded data to redis again as a new instance of the same
// record and loads it.
func (s *Struct) Copy(ctx context.Context, pipe Pipe) (*Struct, error) {
	return s.typ.From(ctx, s.Map(), WithPipe(pipe))
}

func (s *Struct) String() string {
	return fmt.Sprintf("<%s:%s>", s.typ.Name, s.key)
}

// MarshalJSON encodes the struct as an object including the primary key.
func (s *Struct) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Map())
}
