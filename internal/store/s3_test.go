package store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjects) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}

	return out, nil
}

func TestS3BackendRoundTrip(t *testing.T) {
	objects := newFakeObjects()
	s := New(NewS3BackendFromClient(objects, "tickr", "/data/"))
	ctx := context.Background()

	require.NoError(t, Update(ctx, s, KindStudySessions, "2", func(items []int) ([]int, error) {
		return append(items, 10, 20), nil
	}))
	require.NoError(t, Update(ctx, s, KindUsers, AccountsOwner, func(items []string) ([]string, error) {
		return append(items, "alice"), nil
	}))

	assert.Contains(t, objects.objects, "data/study_sessions/2.json")
	assert.Contains(t, objects.objects, "data/users/_.json")

	items, err := Load[int](ctx, s, KindStudySessions, "2")
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, items)

	owners, err := s.Backend().List(ctx, KindUsers)
	require.NoError(t, err)
	assert.Equal(t, []string{AccountsOwner}, owners)
}

func TestS3BackendMissingAndDelete(t *testing.T) {
	objects := newFakeObjects()
	b := NewS3BackendFromClient(objects, "tickr", "")
	ctx := context.Background()

	_, err := b.Get(ctx, KindGroups, "9")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, b.Put(ctx, KindGroups, "9", []byte(`["g"]`)))
	require.NoError(t, b.Put(ctx, KindGroups, "12", []byte(`["h"]`)))

	owners, err := b.List(ctx, KindGroups)
	require.NoError(t, err)
	assert.Equal(t, []string{"12", "9"}, owners)

	require.NoError(t, b.Delete(ctx, KindGroups, "9"))
	_, err = b.Get(ctx, KindGroups, "9")
	assert.ErrorIs(t, err, ErrNotFound)
}
