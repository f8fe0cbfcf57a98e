package backup

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// fakeS3 is an in-memory bucket that pages listings two keys at a time.
type fakeS3 struct {
	objects  map[string][]byte
	modified map[string]time.Time
	clock    time.Time
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, modified: map[string]time.Time{}, clock: testNow}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Key)
	f.objects[key] = data
	f.clock = f.clock.Add(time.Minute)
	f.modified[key] = f.clock
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == *in.ContinuationToken {
				start = i
			}
		}
	}
	end := min(start+2, len(keys))
	out := &s3.ListObjectsV2Output{}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(f.objects[k]))),
			LastModified: aws.Time(f.modified[k]),
		})
	}
	if end < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[end])
	}
	return out, nil
}

func TestS3Target(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	target := newS3Target(fake, "family-backups", "/homelib/")

	names := []string{
		FileName(testNow.Add(-2 * time.Hour)),
		FileName(testNow.Add(-time.Hour)),
		FileName(testNow),
	}
	for _, n := range names {
		info, err := target.Put(ctx, n, []byte(n))
		require.NoError(t, err)
		assert.Equal(t, "s3", info.Target)
	}
	fake.objects["homelib/readme.txt"] = []byte("not a backup")
	fake.objects["other/"+names[0]] = []byte("other prefix")

	assert.Contains(t, fake.objects, "homelib/"+names[0])

	list, err := target.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, names[2], list[0].Name)
	assert.Equal(t, names[0], list[2].Name)
	assert.Equal(t, int64(len(names[0])), list[2].Size)

	data, err := target.Get(ctx, names[1])
	require.NoError(t, err)
	assert.Equal(t, []byte(names[1]), data)

	_, err = target.Get(ctx, FileName(testNow.Add(time.Hour)))
	assert.True(t, errors.Is(err, ErrBackupNotFound))
}
