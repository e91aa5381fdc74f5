package store_test

import (
	"context"
	"testing"

	"github.com/ErlanBelekov/auth-service/internal/infrastructure/store"
)

func TestBackendFor(t *testing.T) {
	cases := []struct {
		url     string
		want    store.Backend
		wantErr bool
	}{
		{url: "mongodb://localhost:27017", want: store.BackendMongo},
		{url: "mongodb+srv://cluster.example.net/auth", want: store.BackendMongo},
		{url: "postgres://u:p@localhost:5432/auth", want: store.BackendPostgres},
		{url: "postgresql://u:p@localhost:5432/auth", want: store.BackendPostgres},
		{url: "mysql://localhost/auth", wantErr: true},
		{url: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := store.BackendFor(tc.url)
		if tc.wantErr {
			if err == nil {
				t.Errorf("BackendFor(%q): expected error", tc.url)
			}
			continue
		}
		if err != nil {
			t.Errorf("BackendFor(%q): unexpected error %v", tc.url, err)
			continue
		}
		if got != tc.want {
			t.Errorf("BackendFor(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestOpen_UnsupportedScheme(t *testing.T) {
	if _, err := store.Open(context.Background(), "redis://localhost", "auth"); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
}
