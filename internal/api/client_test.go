package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dengarop/herdbook/internal/session"
)

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(session.New("test-token", srv.URL), 5*time.Second)
}

func TestListCowsNormalizesFieldVariants(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/cattle" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"cows": [
			{"cow_id": 7, "tag": "TW-2025-ABC-0007", "breed": "Nilotic", "age": "4",
			 "owner_full_name": "Deng Majok", "owner_phone": "0912345678"},
			{"id": "8", "tag": "TW-2025-ABC-0008", "breed": "Ankole-Watusi",
			 "full_name": "Nyankiir Deng"}
		]}`))
	})

	cows, err := client.ListCows(context.Background())
	if err != nil {
		t.Fatalf("ListCows() error = %v", err)
	}
	if len(cows) != 2 {
		t.Fatalf("got %d cows, want 2", len(cows))
	}
	if cows[0].ID != 7 || cows[0].Age != 4 || cows[0].Owner.FullName != "Deng Majok" {
		t.Errorf("first cow = %+v", cows[0])
	}
	if cows[1].ID != 8 || cows[1].Owner.FullName != "Nyankiir Deng" {
		t.Errorf("second cow = %+v", cows[1])
	}
}

func TestAuthFailureIsDistinct(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})
		_, err := client.ListCows(context.Background())
		if !errors.Is(err, session.ErrNotAuthenticated) {
			t.Errorf("status %d: error = %v, want ErrNotAuthenticated", status, err)
		}
	}
}

func TestServerErrorCarriesMessage(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "database down"}`))
	})

	_, err := client.ListCows(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "database down" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestExpiredSessionFailsBeforeNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	client := New(session.New("", srv.URL), time.Second)
	_, err := client.ListCows(context.Background())
	if !errors.Is(err, session.ErrNotAuthenticated) {
		t.Fatalf("error = %v, want ErrNotAuthenticated", err)
	}
	if called {
		t.Error("request reached the server despite missing token")
	}
}

func registration() Registration {
	return Registration{
		OwnerFullName: "Deng Majok",
		OwnerPhone:    "0912345678",
		Breed:         "Nilotic",
		Color:         "brown",
		Age:           4,
		NoseImages:    [][]byte{[]byte("n1"), []byte("n2"), []byte("n3")},
		FacialImage:   []byte("face"),
	}
}

func TestRegisterSuccess(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.FormValue("owner_full_name"); got != "Deng Majok" {
			t.Errorf("owner_full_name = %q", got)
		}
		if n := len(r.MultipartForm.File["nose_print_images"]); n != 3 {
			t.Errorf("got %d nose images, want 3", n)
		}
		if n := len(r.MultipartForm.File["facial_image"]); n != 1 {
			t.Errorf("got %d facial images, want 1", n)
		}
		w.Write([]byte(`{"success": true, "cow_tag": "TW-2025-ABC-0009"}`))
	})

	res, err := client.Register(context.Background(), registration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if res.Duplicate || res.Tag != "TW-2025-ABC-0009" {
		t.Errorf("result = %+v", res)
	}
}

func TestRegisterDuplicateShapes(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"success flag with existing_cow_tag", http.StatusOK,
			`{"success": false, "existing_cow_tag": "TW-2025-ABC-0007"}`},
		{"conflict with existing_tag", http.StatusConflict,
			`{"existing_tag": "TW-2025-ABC-0007"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			res, err := client.Register(context.Background(), registration())
			if err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if !res.Duplicate || res.ExistingTag != "TW-2025-ABC-0007" {
				t.Errorf("result = %+v", res)
			}
		})
	}
}

func TestRegisterBackendFailureIsNotADuplicate(t *testing.T) {
	// An error envelope with success:false but no existing tag must
	// surface as a backend failure, never as a duplicate detection.
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "message": "database down"}`))
	})

	res, err := client.Register(context.Background(), registration())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Message != "database down" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if res.Duplicate {
		t.Errorf("result = %+v, reported as duplicate", res)
	}
}

func TestReplyReportRejectsBadStatus(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	})
	if err := client.ReplyReport(context.Background(), 1, "ok", "archived"); err == nil {
		t.Error("ReplyReport() accepted invalid status")
	}
}

func TestDownloadReceipt(t *testing.T) {
	pdf := []byte("%PDF-1.4 fake")
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/receipt/TW-2025-ABC-0007" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(pdf)
	})

	var buf bytes.Buffer
	n, err := client.DownloadReceipt(context.Background(), "TW-2025-ABC-0007", &buf)
	if err != nil {
		t.Fatalf("DownloadReceipt() error = %v", err)
	}
	if n != int64(len(pdf)) || !bytes.Equal(buf.Bytes(), pdf) {
		t.Errorf("got %d bytes", n)
	}
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/login" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"access_token": "tok-123"}`))
	}))
	defer srv.Close()

	token, err := Login(context.Background(), srv.URL, "admin", "secret", time.Second)
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q", token)
	}
}

func TestLoginRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail": "bad credentials"}`))
	}))
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, "admin", "wrong", time.Second)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Message != "bad credentials" {
		t.Errorf("message = %q", apiErr.Message)
	}
}
