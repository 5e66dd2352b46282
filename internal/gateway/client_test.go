package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aegis-response/aegis_console/internal/subscriber"
)

func newBackend(t *testing.T) (*httptest.Server, *subscriber.Service) {
	t.Helper()
	repo := subscriber.NewMemoryRepository()
	svc := subscriber.NewService(repo, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			records, _ := svc.List(r.Context())
			if records == nil {
				records = []subscriber.Record{}
			}
			json.NewEncoder(w).Encode(map[string]any{"users": records})
		case http.MethodPost:
			var candidate subscriber.Record
			json.NewDecoder(r.Body).Decode(&candidate)
			rec, err := svc.Create(r.Context(), candidate)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"user": rec})
		case http.MethodPatch:
			var req struct {
				ID   string           `json:"id"`
				Data subscriber.Patch `json:"data"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.ID == "" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "id required"})
				return
			}
			rec, err := svc.Update(r.Context(), req.ID, req.Data)
			if errors.Is(err, subscriber.ErrNotFound) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"user": rec})
		case http.MethodDelete:
			var req struct {
				ID string `json:"id"`
			}
			json.NewDecoder(r.Body).Decode(&req)
			if req.ID == "" {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{"error": "id required"})
				return
			}
			if err := svc.Delete(r.Context(), req.ID); errors.Is(err, subscriber.ErrNotFound) {
				w.WriteHeader(http.StatusNotFound)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}
			json.NewEncoder(w).Encode(map[string]bool{"ok": true})
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestClientRoundTrip(t *testing.T) {
	srv, _ := newBackend(t)
	client := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	created, err := client.Create(ctx, subscriber.Record{Name: "Ann", Email: "a@x.com", Phone: 5550001})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt == nil {
		t.Fatalf("server fields missing: %+v", created)
	}

	records, err := client.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != created.ID {
		t.Fatalf("unexpected listing: %+v", records)
	}

	updated, err := client.Update(ctx, created.ID, subscriber.Patch{"phone": float64(5559999)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Phone != 5559999 {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	records, err = client.List(ctx)
	if err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty collection, got %+v", records)
	}
}

func TestClientMapsNotFound(t *testing.T) {
	srv, _ := newBackend(t)
	client := NewClient(srv.URL, srv.Client())

	if _, err := client.Update(context.Background(), "b0c1d2e3-0000-0000-0000-000000000000", subscriber.Patch{"name": "X"}); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := client.Delete(context.Background(), "b0c1d2e3-0000-0000-0000-000000000000"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestClientMapsValidationError(t *testing.T) {
	srv, _ := newBackend(t)
	client := NewClient(srv.URL, srv.Client())

	err := client.Delete(context.Background(), "")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error for missing id, got %v", err)
	}
}

func TestClientMapsTransportError(t *testing.T) {
	srv, _ := newBackend(t)
	srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.List(context.Background())

	var tErr *TransportError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClientSendsAuthAndIdempotencyHeaders(t *testing.T) {
	var gotAuth, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("Idempotency-Key")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"user": subscriber.Record{ID: "1"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, srv.Client())
	client.SetToken("token-123")

	if _, err := client.Create(context.Background(), subscriber.Record{Name: "A", Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotAuth != "Bearer token-123" {
		t.Fatalf("missing bearer token, got %q", gotAuth)
	}
	if gotKey == "" {
		t.Fatalf("mutations must carry an Idempotency-Key")
	}
}
