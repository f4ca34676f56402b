// Package cep looks up Brazilian postal codes (CEP) against the ViaCEP
// API to autofill family addresses. Lookups are cached; a lookup failure
// is reported to the caller but must never block saving a family.
package cep

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"
)

const cacheTTL = 24 * time.Hour

var (
	// ErrInvalidCEP is returned for input that is not eight digits.
	ErrInvalidCEP = errors.New("cep must be 8 digits")
	// ErrCEPNotFound is returned when ViaCEP does not know the code.
	ErrCEPNotFound = errors.New("cep not found")
)

var cepPattern = regexp.MustCompile(`^\d{8}$`)

// Address is the portion of the ViaCEP response the console uses.
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

type cacheEntry struct {
	address Address
	fetched time.Time
}

// Service fetches and caches CEP lookups.
type Service struct {
	client  *http.Client
	baseURL string
	mu      sync.RWMutex
	cache   map[string]cacheEntry
}

// NewService creates a CEP lookup service against the public ViaCEP API.
func NewService() *Service {
	return &Service{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: "https://viacep.com.br/ws",
		cache:   make(map[string]cacheEntry),
	}
}

// Normalize strips formatting from a CEP, keeping only digits.
func Normalize(cep string) string {
	out := make([]byte, 0, len(cep))
	for i := 0; i < len(cep); i++ {
		if cep[i] >= '0' && cep[i] <= '9' {
			out = append(out, cep[i])
		}
	}
	return string(out)
}

// Lookup resolves a CEP to an address. The input may carry formatting
// ("01310-100"); only the digits are used.
func (s *Service) Lookup(cep string) (Address, error) {
	normalized := Normalize(cep)
	if !cepPattern.MatchString(normalized) {
		return Address{}, ErrInvalidCEP
	}

	s.mu.RLock()
	entry, ok := s.cache[normalized]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetched) < cacheTTL {
		return entry.address, nil
	}

	addr, err := s.fetch(normalized)
	if err != nil {
		return Address{}, err
	}

	s.mu.Lock()
	s.cache[normalized] = cacheEntry{address: addr, fetched: time.Now()}
	s.mu.Unlock()

	return addr, nil
}

type apiResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Error        bool   `json:"erro"`
}

func (s *Service) fetch(cep string) (Address, error) {
	url := fmt.Sprintf("%s/%s/json/", s.baseURL, cep)

	resp, err := s.client.Get(url)
	if err != nil {
		return Address{}, fmt.Errorf("viacep request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest {
		return Address{}, ErrInvalidCEP
	}
	if resp.StatusCode != http.StatusOK {
		return Address{}, fmt.Errorf("viacep returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Address{}, fmt.Errorf("decode viacep response: %w", err)
	}
	if apiResp.Error {
		return Address{}, ErrCEPNotFound
	}

	return Address{
		CEP:          apiResp.CEP,
		Street:       apiResp.Street,
		Neighborhood: apiResp.Neighborhood,
		City:         apiResp.City,
		State:        apiResp.State,
	}, nil
}
