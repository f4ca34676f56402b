package push

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/rbfontana/acolhe/internal/model"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	if pub == "" {
		t.Error("expected non-empty public key")
	}
	if priv == "" {
		t.Error("expected non-empty private key")
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestServiceConfigured(t *testing.T) {
	if NewService("", "", "mailto:x@y.z").Configured() {
		t.Error("service without keys reports configured")
	}
	if !NewService("pub", "priv", "mailto:x@y.z").Configured() {
		t.Error("service with keys reports unconfigured")
	}
}

func TestAttentionBody(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	never := model.Family{ResponsibleName: "Maria Souza"}
	if got := attentionBody(never, now); got != "Maria Souza ainda não recebeu nenhuma doação" {
		t.Errorf("body = %q", got)
	}

	last := now.AddDate(0, 0, -90)
	stale := model.Family{ResponsibleName: "João Lima", LastDonation: &last}
	if got := attentionBody(stale, now); got != "João Lima está há 90 dias sem receber doações" {
		t.Errorf("body = %q", got)
	}
}
