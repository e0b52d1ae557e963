// Package backend defines the contract between the transfer engine and an
// object-storage service, and a registry of backend implementations.
//
// A backend exposes the abstract multipart protocol (initiate, upload or copy
// parts, then complete or abort) plus single-call writes and copies. Backends
// must be safe for concurrent use.
package backend

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Limits describes the size constraints of a backend.
type Limits struct {
	// MaxSingleWrite is the largest object accepted by PutWhole
	MaxSingleWrite int64

	// MaxSingleCopy is the largest source accepted by CopyWhole
	MaxSingleCopy int64

	// MinPartSize is the smallest size of any part except the last
	MinPartSize int64

	// MaxParts is the largest part number accepted by a session
	MaxParts int32
}

// Backend is an object store supporting the multipart protocol.
type Backend interface {
	// Name returns the backend type name
	Name() string

	// Limits returns the size constraints of the backend
	Limits() Limits

	// Initiate opens a multipart session and returns its identifier
	Initiate(ctx context.Context, target xfertypes.Target) (string, error)

	// UploadPart uploads one part of a session and returns its completion token
	UploadPart(
		ctx context.Context,
		target xfertypes.Target,
		sessionID string,
		number int32,
		data []byte,
		last bool,
	) (string, error)

	// CopyPart copies a range of src into one part of a session and returns its completion token
	CopyPart(
		ctx context.Context,
		target xfertypes.Target,
		sessionID string,
		number int32,
		src xfertypes.ObjectRef,
		r xfertypes.ByteRange,
	) (string, error)

	// Complete assembles the parts, in order, into the target object
	Complete(
		ctx context.Context,
		target xfertypes.Target,
		sessionID string,
		parts []xfertypes.PartRecord,
	) (xfertypes.ObjectRef, error)

	// Abort discards a session and any uploaded parts. Aborting an unknown
	// session is not an error.
	Abort(ctx context.Context, target xfertypes.Target, sessionID string) error

	// PutWhole stores data as the target object in a single call
	PutWhole(ctx context.Context, target xfertypes.Target, data []byte) (xfertypes.ObjectRef, error)

	// CopyWhole copies src to the target object in a single call. When the
	// target sets neither ContentType nor Metadata, the source's are kept.
	CopyWhole(ctx context.Context, target xfertypes.Target, src xfertypes.ObjectRef) (xfertypes.ObjectRef, error)
}

// Statter is implemented by backends able to report an object's size,
// content type and user metadata.
type Statter interface {
	Stat(ctx context.Context, ref xfertypes.ObjectRef) (xfertypes.ObjectInfo, error)
}

// Config selects and configures a backend.
type Config struct {
	// Type is the registered backend type ("s3", "minio", "memory")
	Type string

	// Endpoint is the service endpoint; empty uses the backend default
	Endpoint string

	// Region is the service region
	Region string

	// AccessKey and SecretKey are static credentials; empty uses the default chain
	AccessKey string
	SecretKey string

	// PathStyle forces path-style addressing
	PathStyle bool

	// UseSSL enables TLS for endpoints given without a scheme
	UseSSL bool
}

// Factory creates a Backend from config
type Factory func(ctx context.Context, cfg Config) (Backend, error)

// Registry holds registered backend factories
var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a factory for a backend type
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Open creates a Backend from config
func Open(ctx context.Context, cfg Config) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Type]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.InvalidArgument("unknown backend type: %q", cfg.Type)
	}
	b, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.Type, err)
	}
	return b, nil
}

// Types returns the registered backend type names, sorted
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
