package tool

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPTool_Name(t *testing.T) {
	tool := NewHTTPTool()
	if tool.Name() != "fetch_url" {
		t.Errorf("Name() = %q, want %q", tool.Name(), "fetch_url")
	}
}

func TestHTTPTool_GET(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET request, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("remote work productivity study"))
	}))
	defer server.Close()

	tool := NewHTTPTool()
	result, err := tool.Call(context.Background(), map[string]interface{}{
		"url": server.URL,
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if code, _ := result["status_code"].(int); code != 200 {
		t.Errorf("status_code = %v, want 200", result["status_code"])
	}
	if body, _ := result["body"].(string); body != "remote work productivity study" {
		t.Errorf("unexpected body: %q", body)
	}
	if truncated, _ := result["truncated"].(bool); truncated {
		t.Error("small body should not be truncated")
	}
}

func TestHTTPTool_POST(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST request, got %s", r.Method)
		}
		if r.Header.Get("X-Source") != "draftloop" {
			t.Errorf("expected X-Source header, got %q", r.Header.Get("X-Source"))
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	tool := NewHTTPTool()
	result, err := tool.Call(context.Background(), map[string]interface{}{
		"url":    server.URL,
		"method": "post",
		"body":   `{"query":"remote work"}`,
		"headers": map[string]interface{}{
			"X-Source": "draftloop",
		},
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if code, _ := result["status_code"].(int); code != http.StatusCreated {
		t.Errorf("status_code = %v, want 201", result["status_code"])
	}
}

func TestHTTPTool_InputValidation(t *testing.T) {
	tool := NewHTTPTool()
	ctx := context.Background()

	t.Run("missing url", func(t *testing.T) {
		if _, err := tool.Call(ctx, map[string]interface{}{}); err == nil {
			t.Error("expected error for missing url")
		}
	})

	t.Run("non-string url", func(t *testing.T) {
		if _, err := tool.Call(ctx, map[string]interface{}{"url": 42}); err == nil {
			t.Error("expected error for non-string url")
		}
	})

	t.Run("unsupported method", func(t *testing.T) {
		_, err := tool.Call(ctx, map[string]interface{}{
			"url":    "http://example.com",
			"method": "DELETE",
		})
		if err == nil {
			t.Error("expected error for unsupported method")
		}
		if err != nil && !strings.Contains(err.Error(), "DELETE") {
			t.Errorf("error should name the method, got: %v", err)
		}
	})
}

func TestHTTPTool_BodyTruncation(t *testing.T) {
	large := strings.Repeat("x", 100)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(large))
	}))
	defer server.Close()

	tool := NewHTTPToolWithLimit(10)
	result, err := tool.Call(context.Background(), map[string]interface{}{
		"url": server.URL,
	})
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	body, _ := result["body"].(string)
	if len(body) != 10 {
		t.Errorf("expected body truncated to 10 bytes, got %d", len(body))
	}
	if truncated, _ := result["truncated"].(bool); !truncated {
		t.Error("expected truncated flag to be set")
	}
}

func TestHTTPTool_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	tool := NewHTTPTool()
	if _, err := tool.Call(ctx, map[string]interface{}{"url": server.URL}); err == nil {
		t.Error("expected error from expired context")
	}
}
