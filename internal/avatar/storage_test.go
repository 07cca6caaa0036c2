package avatar_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ErlanBelekov/contacts-api/internal/avatar"
)

func TestKey_StableAndShort(t *testing.T) {
	a := avatar.Key("a@example.com")
	if a != avatar.Key("a@example.com") {
		t.Fatal("key must be deterministic")
	}
	if !strings.HasPrefix(a, "avatars/") || len(a) != len("avatars/")+10 {
		t.Fatalf("unexpected key %q", a)
	}
	if a == avatar.Key("b@example.com") {
		t.Fatal("different emails must not share a key")
	}
}

func TestS3Storage_Put(t *testing.T) {
	var gotMethod, gotPath, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store, err := avatar.NewS3Storage(context.Background(), avatar.S3Config{
		Endpoint:  srv.URL,
		Region:    "us-east-1",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "contacts",
	})
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	key := avatar.Key("a@example.com")
	url, err := store.Put(context.Background(), key, strings.NewReader("png-bytes"), 9, "image/png")
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	if gotMethod != http.MethodPut {
		t.Errorf("want PUT, got %s", gotMethod)
	}
	if gotPath != "/contacts/"+key {
		t.Errorf("want path /contacts/%s, got %s", key, gotPath)
	}
	if gotType != "image/png" {
		t.Errorf("want content type image/png, got %s", gotType)
	}
	if !strings.Contains(string(gotBody), "png-bytes") {
		t.Errorf("body not uploaded: %q", gotBody)
	}
	if url != srv.URL+"/contacts/"+key {
		t.Errorf("unexpected public url %s", url)
	}
}
