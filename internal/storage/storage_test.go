package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

func TestCleanKey(t *testing.T) {
	for _, ok := range []string{"a.pdf", "invoices/a.pdf", "x/./y.pdf"} {
		_, err := cleanKey(ok)
		assert.NoError(t, err, ok)
	}
	for _, bad := range []string{"", ".", "..", "../etc/passwd", "/abs.pdf", "a/../../b"} {
		_, err := cleanKey(bad)
		assert.ErrorIs(t, err, common.ErrInvalidInput, bad)
	}
}

func TestLocalStore_PutOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)

	loc, err := s.Put(context.Background(), "2025/invoice-LD-9.pdf", "application/pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025", "invoice-LD-9.pdf"), loc)

	rc, err := s.Open(context.Background(), "2025/invoice-LD-9.pdf")
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3", string(b))

	entries, err := os.ReadDir(filepath.Join(dir, "2025"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")

	_, err = s.Open(context.Background(), "missing.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestNew_Backends(t *testing.T) {
	s, err := New(common.StorageConfig{Backend: "local", Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, s)

	_, err = New(common.StorageConfig{Backend: "s3"}, nil)
	assert.Error(t, err)

	_, err = New(common.StorageConfig{Backend: "ftp"}, nil)
	assert.Error(t, err)
}

type fakeUploader struct {
	input *s3manager.UploadInput
	body  []byte
	out   *s3manager.UploadOutput
	err   error
}

func (f *fakeUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return f.out, f.err
}

type fakeGetter struct {
	objects map[string][]byte
}

func (f *fakeGetter) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	b, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "The specified key does not exist.", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func TestS3Store_Put(t *testing.T) {
	up := &fakeUploader{out: &s3manager.UploadOutput{Location: "https://bucket.s3.amazonaws.com/invoices/a.pdf"}}
	s := NewS3StoreWithClients("bucket", "/invoices/", up, &fakeGetter{}, nil)

	loc, err := s.Put(context.Background(), "a.pdf", "application/pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/invoices/a.pdf", loc)
	assert.Equal(t, "bucket", aws.StringValue(up.input.Bucket))
	assert.Equal(t, "invoices/a.pdf", aws.StringValue(up.input.Key))
	assert.Equal(t, "application/pdf", aws.StringValue(up.input.ContentType))
	assert.Equal(t, "pdf", string(up.body))

	up.out = &s3manager.UploadOutput{}
	loc, err = s.Put(context.Background(), "b.pdf", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/invoices/b.pdf", loc)
	assert.Nil(t, up.input.ContentType)

	up.err = errors.New("RequestCanceled")
	_, err = s.Put(context.Background(), "c.pdf", "", nil)
	assert.Error(t, err)
}

func TestS3Store_Open(t *testing.T) {
	g := &fakeGetter{objects: map[string][]byte{"a.pdf": []byte("pdf")}}
	s := NewS3StoreWithClients("bucket", "", &fakeUploader{}, g, nil)

	rc, err := s.Open(context.Background(), "a.pdf")
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "pdf", string(b))

	_, err = s.Open(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
