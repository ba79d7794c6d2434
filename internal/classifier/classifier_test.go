package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestValidatePositive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Errorf("expected multipart body: %v", err)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("expected file part: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"is_cow": true, "confidence": 0.95}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	result, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !result.IsCowNose || result.Confidence != 0.95 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestValidateNegative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"is_cow": false, "confidence": 0.12}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	result, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if result.IsCowNose {
		t.Error("expected negative judgment")
	}
	if result.Confidence != 0.12 {
		t.Errorf("confidence = %v", result.Confidence)
	}
}

func TestValidate422IsNegativeNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail": "unprocessable"}`, http.StatusUnprocessableEntity)
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	result, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if err != nil {
		t.Fatalf("422 must not be an error: %v", err)
	}
	if result.IsCowNose {
		t.Error("422 must map to a negative judgment")
	}
}

func TestValidateMalformedBodyIsNegative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`this is not json`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	result, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if err != nil {
		t.Fatalf("malformed body must not be an error: %v", err)
	}
	if result.IsCowNose {
		t.Error("malformed body must map to a negative judgment")
	}
}

func TestValidateDetailFieldIsNegative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"detail": "model warming up"}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	result, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if err != nil {
		t.Fatalf("detail response must not be an error: %v", err)
	}
	if result.IsCowNose {
		t.Error("detail response must map to a negative judgment")
	}
}

func TestValidateServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	_, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestValidateNetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := New(server.URL, time.Second)
	_, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestValidateTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, 50*time.Millisecond)
	_, err := client.Validate(context.Background(), "nose.jpg", []byte("imagedata"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable on timeout, got %v", err)
	}
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"status": "ok"}`))
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, time.Second)
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}
