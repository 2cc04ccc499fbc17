package storage

import (
	"context"
	"testing"

	"github.com/spec-kit/civic-intake/internal/config"
)

func TestPublicURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"aws", "", "https://photos.s3.ap-south-1.amazonaws.com/issues/a.jpg"},
		{"spaces", "https://blr1.digitaloceanspaces.com", "https://photos.blr1.digitaloceanspaces.com/issues/a.jpg"},
		{"path style", "http://localhost:9000/", "http://localhost:9000/photos/issues/a.jpg"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := PublicURL("photos", "ap-south-1", tc.endpoint, "issues/a.jpg"); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNewPhotoStoreRequiresBucket(t *testing.T) {
	t.Parallel()

	if _, err := NewPhotoStore(context.Background(), config.PhotoConfig{Region: "us-east-1"}, nil); err == nil {
		t.Fatalf("expected error without bucket")
	}
}

func TestUploadRejectsOversizedPhoto(t *testing.T) {
	t.Parallel()

	store := &PhotoStore{bucket: "photos", maxBytes: 10}
	if _, err := store.Upload(context.Background(), "k", "image/png", nil, 11); err == nil {
		t.Fatalf("expected size error")
	}
}
