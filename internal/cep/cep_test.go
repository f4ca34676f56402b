package cep

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := NewService()
	s.baseURL = server.URL
	return s
}

func TestLookup(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/01310100/json/" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	})

	addr, err := s.Lookup("01310-100")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if addr.Street != "Avenida Paulista" {
		t.Errorf("street = %q", addr.Street)
	}
	if addr.Neighborhood != "Bela Vista" {
		t.Errorf("neighborhood = %q", addr.Neighborhood)
	}
	if addr.City != "São Paulo" || addr.State != "SP" {
		t.Errorf("city/state = %q/%q", addr.City, addr.State)
	}
}

func TestLookupNotFound(t *testing.T) {
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"erro": true}`))
	})

	_, err := s.Lookup("99999999")
	if err != ErrCEPNotFound {
		t.Fatalf("err = %v, want ErrCEPNotFound", err)
	}
}

func TestLookupInvalidInput(t *testing.T) {
	s := NewService()

	for _, cep := range []string{"", "123", "abcdefgh", "123456789"} {
		if _, err := s.Lookup(cep); err != ErrInvalidCEP {
			t.Errorf("Lookup(%q) err = %v, want ErrInvalidCEP", cep, err)
		}
	}
}

func TestLookupCaches(t *testing.T) {
	var calls int32
	s := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"cep":"01310-100","logradouro":"Avenida Paulista","bairro":"Bela Vista","localidade":"São Paulo","uf":"SP"}`))
	})

	if _, err := s.Lookup("01310100"); err != nil {
		t.Fatalf("first lookup: %v", err)
	}
	if _, err := s.Lookup("01310-100"); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("api calls = %d, want 1 (second lookup served from cache)", n)
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"01310-100": "01310100",
		"01310100":  "01310100",
		" 01310 ":   "01310",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
