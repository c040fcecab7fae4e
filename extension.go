package xgb

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/exp/maps"
	"golang.org/x/sync/singleflight"

	"github.com/xgbnet/xgb/wire"
)

const queryExtensionOpcode = 98

// ExtensionInfo describes an extension as the server reported it. When
// Present is false the other fields are zero.
type ExtensionInfo struct {
	Name        string
	Present     bool
	MajorOpcode byte
	FirstEvent  byte
	FirstError  byte
}

// Schema describes the events and errors of an extension. Packages
// implementing an extension register one with RegisterSchema; a connection
// uses it once the extension has been resolved as present.
type Schema interface {
	// Name is the extension name used in QueryExtension.
	Name() string

	// NewEvent decodes an event whose code is rel above the extension's
	// first event. It returns nil for codes it does not know.
	NewEvent(rel byte, d *wire.Decoder) Event

	// NewError decodes an error whose code is rel above the extension's
	// first error. It returns nil for codes it does not know.
	NewError(rel byte, d *wire.Decoder) Error
}

// GenericSchema is implemented by schemas whose extension sends
// GenericEvents.
type GenericSchema interface {
	Schema
	NewGenericEvent(evtype uint16, d *wire.Decoder) Event
}

var (
	schemaLock sync.RWMutex
	schemas    = make(map[string]Schema)
)

// RegisterSchema makes s available to every connection. It is meant to be
// called from init.
func RegisterSchema(s Schema) {
	schemaLock.Lock()
	defer schemaLock.Unlock()
	schemas[s.Name()] = s
}

func lookupSchema(name string) Schema {
	schemaLock.RLock()
	defer schemaLock.RUnlock()
	return schemas[name]
}

type boundSchema struct {
	schema Schema
	info   ExtensionInfo
}

// extensionRegistry caches QueryExtension results, present or not, by
// name. Entries never change once written.
type extensionRegistry struct {
	mu    sync.RWMutex
	table map[string]ExtensionInfo
	bound []boundSchema
	group singleflight.Group
}

func newExtensionRegistry() *extensionRegistry {
	return &extensionRegistry{table: make(map[string]ExtensionInfo)}
}

func (r *extensionRegistry) get(name string) (ExtensionInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.table[name]
	return info, ok
}

func (r *extensionRegistry) put(info ExtensionInfo) ExtensionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.table[info.Name]; ok {
		return prev
	}
	r.table[info.Name] = info
	if !info.Present {
		return info
	}
	if s := lookupSchema(info.Name); s != nil {
		r.bound = append(r.bound, boundSchema{schema: s, info: info})
	}
	return info
}

// eventSchema returns the schema owning event code, and its first event
// code. Of the schemas whose range could contain code, the one with the
// highest first event wins.
func (r *extensionRegistry) eventSchema(code byte) (Schema, byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *boundSchema
	for i := range r.bound {
		b := &r.bound[i]
		if b.info.FirstEvent == 0 || b.info.FirstEvent > code {
			continue
		}
		if best == nil || b.info.FirstEvent > best.info.FirstEvent {
			best = b
		}
	}
	if best == nil {
		return nil, 0
	}
	return best.schema, best.info.FirstEvent
}

func (r *extensionRegistry) errorSchema(code byte) (Schema, byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *boundSchema
	for i := range r.bound {
		b := &r.bound[i]
		if b.info.FirstError == 0 || b.info.FirstError > code {
			continue
		}
		if best == nil || b.info.FirstError > best.info.FirstError {
			best = b
		}
	}
	if best == nil {
		return nil, 0
	}
	return best.schema, best.info.FirstError
}

func (r *extensionRegistry) genericSchema(major byte) GenericSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bound {
		if b.info.MajorOpcode == major {
			g, _ := b.schema.(GenericSchema)
			return g
		}
	}
	return nil
}

// ResolveExtension returns what the server reports about the named
// extension. The first call for a name performs a QueryExtension round
// trip; the answer, present or absent, is cached for the life of the
// connection. Concurrent first calls share one round trip.
//
// Names are compared exactly as given.
func (c *Conn) ResolveExtension(ctx context.Context, name string) (ExtensionInfo, error) {
	if info, ok := c.ext.get(name); ok {
		return info, nil
	}

	ch := c.ext.group.DoChan(name, func() (interface{}, error) {
		return c.queryExtension(name)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return ExtensionInfo{}, res.Err
		}
		return res.Val.(ExtensionInfo), nil
	case <-ctx.Done():
		return ExtensionInfo{}, ctx.Err()
	}
}

// queryExtension performs the round trip for ResolveExtension. It is not
// tied to any one caller's context so that the answer is cached even if
// the caller that started it gives up.
func (c *Conn) queryExtension(name string) (ExtensionInfo, error) {
	if info, ok := c.ext.get(name); ok {
		return info, nil
	}

	ctx, span := c.tracer.Start(context.Background(), "xgb.QueryExtension")
	defer span.End()
	span.SetAttributes(attribute.String("x11.extension", name))

	e := c.NewEncoder()
	e.Request(queryExtensionOpcode, 0)
	e.PutLen16(len(name))
	e.Skip(2)
	e.PutString(name)
	if err := e.Err(); err != nil {
		span.RecordError(err)
		return ExtensionInfo{}, errors.Wrap(err, "query extension name")
	}
	cookie := c.SendRequest(true, true, e.EndRequest())

	buf, err := cookie.ReplyContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ExtensionInfo{}, errors.Wrapf(err, "query extension %q", name)
	}

	d := c.NewDecoder(buf)
	d.Skip(8)
	info := ExtensionInfo{Name: name}
	info.Present = d.GetBool()
	if info.Present {
		info.MajorOpcode = d.Get8()
		info.FirstEvent = d.Get8()
		info.FirstError = d.Get8()
	}
	if err := d.Err(); err != nil {
		span.RecordError(err)
		return ExtensionInfo{}, errors.Wrapf(err, "query extension %q", name)
	}

	info = c.ext.put(info)
	span.SetAttributes(
		attribute.Bool("x11.present", info.Present),
		attribute.Int("x11.major_opcode", int(info.MajorOpcode)),
	)
	c.log.WithField("extension", name).
		WithField("present", info.Present).
		WithField("major", info.MajorOpcode).
		Debugf("resolved extension")
	return info, nil
}

// Extension returns the cached answer for name without a round trip. ok is
// false if name has not been resolved on this connection.
func (c *Conn) Extension(name string) (info ExtensionInfo, ok bool) {
	return c.ext.get(name)
}

// ExtensionOpcode returns the major opcode of a resolved, present
// extension, for use in request headers.
func (c *Conn) ExtensionOpcode(name string) (byte, error) {
	info, ok := c.ext.get(name)
	if !ok || !info.Present {
		return 0, errors.Wrap(ErrExtensionNotInitialized, name)
	}
	return info.MajorOpcode, nil
}

// Extensions returns a snapshot of every extension resolved so far.
func (c *Conn) Extensions() map[string]ExtensionInfo {
	c.ext.mu.RLock()
	defer c.ext.mu.RUnlock()
	return maps.Clone(c.ext.table)
}
