package auth

import (
	"context"
	"testing"
)

func TestIdentityRoundTrip(t *testing.T) {
	id := Identity{UserID: 7, SessionID: 3, Email: "admin@acolhe.org", Name: "Admin"}
	ctx := WithIdentity(context.Background(), id)

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("identity not found in context")
	}
	if got != id {
		t.Errorf("got %+v, want %+v", got, id)
	}
}

func TestMissingIdentity(t *testing.T) {
	_, ok := FromContext(context.Background())
	if ok {
		t.Fatal("expected no identity on bare context")
	}
}
