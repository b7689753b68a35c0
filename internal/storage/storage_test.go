package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WankioM/property-qr/internal/config"
	"github.com/WankioM/property-qr/pkg/logger"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"qr-images/p1.png", false},
		{"metadata/p1.json", false},
		{"", true},
		{"/qr-images/p1.png", true},
		{"qr-images/../secrets", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if tt.wantErr {
				assert.Error(t, ValidateKey(tt.key))
			} else {
				assert.NoError(t, ValidateKey(tt.key))
			}
		})
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("bucket")

	url, err := s.Put(ctx, "qr-images/p1.png", []byte{1, 2, 3}, ContentTypePNG)
	require.NoError(t, err)
	assert.Equal(t, "memory://bucket/qr-images/p1.png", url)

	data, ct, ok := s.Get("qr-images/p1.png")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.Equal(t, ContentTypePNG, ct)

	deleted, err := s.Delete(ctx, "qr-images/p1.png")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.Delete(ctx, "qr-images/p1.png")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.Put(ctx, "../escape", nil, ContentTypePNG)
	assert.Error(t, err)
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{
			name: "virtual hosted",
			cfg:  S3Config{Bucket: "daobitat-qr-codes", Region: "us-east-1"},
			want: "https://daobitat-qr-codes.s3.us-east-1.amazonaws.com/qr-images/p1.png",
		},
		{
			name: "cloudfront",
			cfg:  S3Config{Bucket: "b", Region: "r", CloudFrontDomain: "cdn.daobitat.xyz"},
			want: "https://cdn.daobitat.xyz/qr-images/p1.png",
		},
		{
			name: "cloudfront with scheme",
			cfg:  S3Config{Bucket: "b", Region: "r", CloudFrontDomain: "https://cdn.daobitat.xyz/"},
			want: "https://cdn.daobitat.xyz/qr-images/p1.png",
		},
		{
			name: "custom endpoint",
			cfg:  S3Config{Bucket: "b", Region: "r", Endpoint: "http://localhost:9000/"},
			want: "http://localhost:9000/b/qr-images/p1.png",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicURL(tt.cfg, "qr-images/p1.png"))
		})
	}
}

func TestNewObjectStoreFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.StorageType = "memory"
	s, err := NewObjectStoreFromConfig(context.Background(), cfg, logger.NewNopLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	cfg.StorageType = "ftp"
	_, err = NewObjectStoreFromConfig(context.Background(), cfg, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestMemoryStorePing(t *testing.T) {
	assert.NoError(t, NewMemoryStore("qr").Ping(context.Background()))
}
