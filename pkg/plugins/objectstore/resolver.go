package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/observability"
	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds each round trip to the object store.
const DefaultTimeout = 30 * time.Second

var manifestExts = []string{".yaml", ".yml"}

// Resolver resolves namespace identifiers to key prefixes in a bucket.
// Identifier "a.b" maps to <prefix>/a/b/; units are the manifest objects
// directly under it. Shared-object members are not supported.
type Resolver struct {
	client       API
	bucket       string
	prefix       string
	kinds        *plugins.Kinds
	cache        *plugins.ManifestCache
	placeholders bool
	timeout      time.Duration
	log          *logrus.Logger
	tracer       trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(log *logrus.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithCache shares a manifest cache between resolvers.
func WithCache(c *plugins.ManifestCache) Option {
	return func(r *Resolver) { r.cache = c }
}

// WithPlaceholders builds members of unknown kinds as *plugins.Placeholder
// values.
func WithPlaceholders() Option {
	return func(r *Resolver) { r.placeholders = true }
}

// WithTimeout bounds each object store request.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithTracer sets the tracer used for object store spans.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// NewResolver creates a resolver over bucket/prefix.
func NewResolver(client API, bucket, prefix string, kinds *plugins.Kinds, opts ...Option) *Resolver {
	if kinds == nil {
		kinds = plugins.NewKinds()
	}
	r := &Resolver{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		kinds:   kinds,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = logrus.New()
	}
	if r.cache == nil {
		r.cache = plugins.NewManifestCache(plugins.DefaultCacheSize, 0)
	}
	if r.tracer == nil {
		r.tracer = observability.Tracer(nil)
	}
	return r
}

// Resolve implements namespace.Resolver.
func (r *Resolver) Resolve(id string) (namespace.Namespace, error) {
	parts := namespace.Split(id)
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %q", namespace.ErrNotFound, id)
	}
	for _, p := range parts {
		if !namespace.IsUnitName(p) {
			return nil, fmt.Errorf("%w: %q", namespace.ErrNotFound, id)
		}
	}

	ctx, cancel := r.context()
	defer cancel()

	base := r.key(parts...)
	out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(r.bucket),
		Prefix:  aws.String(base + "/"),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s/: %w", r.bucket, base, err)
	}
	if len(out.Contents) > 0 {
		return &Bucket{id: id, prefix: base + "/", resolver: r}, nil
	}

	if _, _, found, err := r.head(ctx, base); err != nil {
		return nil, err
	} else if found {
		r.log.Debugf("Plugin base %s is a single unit object", id)
		return &Bucket{id: id, resolver: r}, nil
	}

	return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, id)
}

// Ping verifies the bucket is reachable.
func (r *Resolver) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("s3 health check failed: %w", err)
	}
	return nil
}

func (r *Resolver) context() (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *Resolver) key(parts ...string) string {
	if r.prefix == "" {
		return path.Join(parts...)
	}
	return path.Join(append([]string{r.prefix}, parts...)...)
}

// head finds the manifest object for base, trying each manifest extension.
func (r *Resolver) head(ctx context.Context, base string) (key string, stamp plugins.Stamp, found bool, err error) {
	for _, ext := range manifestExts {
		key = base + ext
		out, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(r.bucket),
			Key:    aws.String(key),
		})
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return "", plugins.Stamp{}, false, fmt.Errorf("failed to stat s3://%s/%s: %w", r.bucket, key, err)
		}

		stamp = plugins.Stamp{ETag: aws.ToString(out.ETag)}
		if out.ContentLength != nil {
			stamp.Size = *out.ContentLength
		}
		if out.LastModified != nil {
			stamp.ModTime = out.LastModified.UnixNano()
		}
		return key, stamp, true, nil
	}
	return "", plugins.Stamp{}, false, nil
}

func (r *Resolver) read(key string) ([]byte, error) {
	ctx, cancel := r.context()
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "S3.GetObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "GetObject"),
			attribute.String("s3.bucket", r.bucket),
			attribute.String("s3.key", key),
		),
	)
	defer span.End()

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get object from s3")
		return nil, fmt.Errorf("failed to get object from s3: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read object")
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", r.bucket, key, err)
	}
	span.SetAttributes(attribute.Int("content.size", len(data)))
	return data, nil
}

// Bucket is a plugin package stored under a key prefix.
type Bucket struct {
	id       string
	prefix   string // empty for module-like namespaces
	resolver *Resolver
}

// ID implements namespace.Namespace.
func (b *Bucket) ID() string {
	return b.id
}

// Path implements namespace.Namespace.
func (b *Bucket) Path() string {
	if b.prefix == "" {
		return ""
	}
	return "s3://" + b.resolver.bucket + "/" + b.prefix
}

// Units implements namespace.Namespace.
func (b *Bucket) Units() ([]string, error) {
	if b.prefix == "" {
		return nil, nil
	}

	r := b.resolver
	ctx, cancel := r.context()
	defer cancel()

	seen := make(map[string]struct{})
	pages := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(r.bucket),
		Prefix:    aws.String(b.prefix),
		Delimiter: aws.String("/"),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", b.Path(), err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), b.prefix)
			ext := path.Ext(name)
			if !isManifestExt(ext) {
				continue
			}
			name = strings.TrimSuffix(name, ext)
			if namespace.IsUnitName(name) {
				seen[name] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Open implements namespace.Namespace.
func (b *Bucket) Open(name string) (*namespace.Unit, error) {
	scope := namespace.Qualify(b.id, name)
	if b.prefix == "" || !namespace.IsUnitName(name) {
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, scope)
	}

	r := b.resolver
	ctx, cancel := r.context()
	key, stamp, found, err := r.head(ctx, b.prefix+name)
	cancel()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", namespace.ErrNotFound, scope)
	}

	source := "s3://" + r.bucket + "/" + key
	return r.cache.Unit(source, stamp,
		func() ([]byte, error) { return r.read(key) },
		func(m *plugins.Manifest) (*namespace.Unit, error) {
			if err := plugins.CheckManifest(m, name); err != nil {
				return nil, fmt.Errorf("%s: %w", source, err)
			}
			builder := plugins.UnitBuilder{Kinds: r.kinds, Placeholders: r.placeholders}
			u, err := builder.Unit(scope, m)
			if err != nil {
				return nil, err
			}
			r.log.Debugf("Loaded plugin unit %s from %s", scope, source)
			return u, nil
		},
	)
}

// Manifest returns the parsed manifest of a unit without building it.
func (b *Bucket) Manifest(name string) (*plugins.Manifest, error) {
	notFound := fmt.Errorf("%w: %s", namespace.ErrNotFound, namespace.Qualify(b.id, name))
	if b.prefix == "" || !namespace.IsUnitName(name) {
		return nil, notFound
	}

	r := b.resolver
	ctx, cancel := r.context()
	key, _, found, err := r.head(ctx, b.prefix+name)
	cancel()
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, notFound
	}

	data, err := r.read(key)
	if err != nil {
		return nil, err
	}
	return plugins.ParseManifest(data)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

func isManifestExt(ext string) bool {
	for _, e := range manifestExts {
		if ext == e {
			return true
		}
	}
	return false
}
