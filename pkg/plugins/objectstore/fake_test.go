package objectstore

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type object struct {
	data     []byte
	etag     string
	modified time.Time
}

// fakeS3 is an in-memory bucket. pageSize limits list pages to exercise
// pagination.
type fakeS3 struct {
	mu       sync.Mutex
	objects  map[string]object
	version  int
	pageSize int
	gets     int
	listErr  error
	headErr  error
	pingErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]object), pageSize: 1000}
}

func (f *fakeS3) put(key, data string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.version++
	f.objects[key] = object{
		data:     []byte(data),
		etag:     `"v` + strconv.Itoa(f.version) + `"`,
		modified: time.Unix(int64(f.version), 0),
	}
}

func (f *fakeS3) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}

	prefix := aws.ToString(in.Prefix)
	delim := aws.ToString(in.Delimiter)
	limit := f.pageSize
	if in.MaxKeys != nil && int(*in.MaxKeys) < limit {
		limit = int(*in.MaxKeys)
	}

	var keys []string
	for key := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if delim != "" && strings.Contains(key[len(prefix):], delim) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	start := 0
	if token := aws.ToString(in.ContinuationToken); token != "" {
		start, _ = strconv.Atoi(token)
	}
	end := min(start+limit, len(keys))

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, key := range keys[start:end] {
		obj := f.objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(key),
			Size: aws.Int64(int64(len(obj.data))),
			ETag: aws.String(obj.etag),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headErr != nil {
		return nil, f.headErr
	}

	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.modified),
	}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	f.gets++
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		ETag:          aws.String(obj.etag),
	}, nil
}

func (f *fakeS3) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingErr != nil {
		return nil, f.pingErr
	}
	return &s3.HeadBucketOutput{}, nil
}
