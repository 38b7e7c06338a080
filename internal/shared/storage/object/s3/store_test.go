package s3

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "user/file.pdf", want: "user/file.pdf"},
		{name: "simple prefix", prefix: "root", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix trailing slash", prefix: "root/", key: "user/file.pdf", want: "root/user/file.pdf"},
		{name: "prefix and key slashes", prefix: "/root/", key: "/user/file.pdf", want: "root/user/file.pdf"},
		{name: "nested prefix", prefix: "root/sub", key: "user/file.pdf", want: "root/sub/user/file.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deletes []string
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, params)
	f.bodies = append(f.bodies, data)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("body"))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

type fakePresigner struct {
	input *s3.GetObjectInput
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.input = params
	return &v4.PresignedHTTPRequest{URL: "https://bucket.example/" + aws.ToString(params.Key)}, nil
}

func TestSaveUsesPrefixAndEncryption(t *testing.T) {
	client := &fakeS3{}
	store := newStore(client, nil, "bucket", "/resumes/", "")

	stored, err := store.Save(context.Background(), "user-1", "cv.txt", strings.NewReader("hello resume"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if stored.SizeBytes != int64(len("hello resume")) {
		t.Fatalf("unexpected size %d", stored.SizeBytes)
	}
	if len(client.puts) != 1 {
		t.Fatalf("expected one put, got %d", len(client.puts))
	}
	put := client.puts[0]
	if got := aws.ToString(put.Key); got != "resumes/"+stored.Key {
		t.Fatalf("unexpected object key %q", got)
	}
	if put.ServerSideEncryption != s3types.ServerSideEncryptionAes256 {
		t.Fatalf("expected AES256 encryption, got %q", put.ServerSideEncryption)
	}
	if string(client.bodies[0]) != "hello resume" {
		t.Fatalf("unexpected body %q", client.bodies[0])
	}
}

func TestDeleteAndPresign(t *testing.T) {
	client := &fakeS3{}
	signer := &fakePresigner{}
	store := newStore(client, signer, "bucket", "root", "kms-1")

	if err := store.Delete(context.Background(), "u/file.pdf"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(client.deletes) != 1 || client.deletes[0] != "root/u/file.pdf" {
		t.Fatalf("unexpected deletes %v", client.deletes)
	}

	url, err := store.PresignGet(context.Background(), "u/file.pdf", "cv.pdf", time.Minute)
	if err != nil {
		t.Fatalf("presign: %v", err)
	}
	if url != "https://bucket.example/root/u/file.pdf" {
		t.Fatalf("unexpected url %q", url)
	}
	if !strings.Contains(aws.ToString(signer.input.ResponseContentDisposition), `filename="cv.pdf"`) {
		t.Fatalf("expected content disposition, got %q", aws.ToString(signer.input.ResponseContentDisposition))
	}
}
