package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// BenchmarkSuite holds a wired router and one signed-up user.
type BenchmarkSuite struct {
	handler   http.Handler
	authToken string
	email     string
}

func setupBenchmarkSuite(b *testing.B) *BenchmarkSuite {
	b.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
	handler, c := newTestHandler(b, logger)
	b.Cleanup(c.Close)

	s := &BenchmarkSuite{handler: handler, email: "bench@example.com"}
	w := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":     s.email,
		"username":  "bench",
		"password":  "password123",
		"firstname": "Bench",
		"lastname":  "Mark",
	})
	if w.Code != http.StatusCreated {
		b.Fatalf("signup failed: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		b.Fatal(err)
	}
	s.authToken = resp.Token

	for i := 0; i < 50; i++ {
		s.doAuthenticated(http.MethodPost, "/api/products", map[string]any{
			"title":    fmt.Sprintf("Product %d", i),
			"price":    float64(i),
			"category": "jewelery",
		})
	}
	return s
}

func (s *BenchmarkSuite) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody io.Reader = http.NoBody
	if body != nil {
		js, _ := json.Marshal(body)
		reqBody = bytes.NewReader(js)
	}
	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *BenchmarkSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	return s.request(method, path, body, "")
}

func (s *BenchmarkSuite) doAuthenticated(method, path string, body any) *httptest.ResponseRecorder {
	return s.request(method, path, body, s.authToken)
}

func BenchmarkUserSignup(b *testing.B) {
	s := setupBenchmarkSuite(b)
	var n atomic.Int64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		id := n.Add(1)
		w := s.do(http.MethodPost, "/api/auth/signup", map[string]string{
			"email":     fmt.Sprintf("user%d@example.com", id),
			"username":  fmt.Sprintf("user%d", id),
			"password":  "password123",
			"firstname": "Bench",
			"lastname":  "Mark",
		})
		if w.Code != http.StatusCreated {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkUserLogin(b *testing.B) {
	s := setupBenchmarkSuite(b)
	body := map[string]string{"email": s.email, "password": "password123"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if w := s.do(http.MethodPost, "/api/auth/login", body); w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkLoginUnknownEmail(b *testing.B) {
	s := setupBenchmarkSuite(b)
	body := map[string]string{"email": "nobody@example.com", "password": "password123"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if w := s.do(http.MethodPost, "/api/auth/login", body); w.Code != http.StatusUnauthorized {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkProfile(b *testing.B) {
	s := setupBenchmarkSuite(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if w := s.doAuthenticated(http.MethodGet, "/api/auth/profile", nil); w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkProductListCached(b *testing.B) {
	s := setupBenchmarkSuite(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if w := s.do(http.MethodGet, "/api/products?limit=20&sort=asc", nil); w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkConcurrentProfile(b *testing.B) {
	s := setupBenchmarkSuite(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.doAuthenticated(http.MethodGet, "/api/auth/profile", nil)
		}
	})
}
