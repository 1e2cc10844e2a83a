package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
)

func TestEffectiveOwner_StandardKey(t *testing.T) {
	actor := &ActorInfo{ActorID: "alice", KeyType: "standard"}

	owner, err := EffectiveOwner(actor, "")
	if err != nil || owner != "alice" {
		t.Fatalf("empty request should resolve to the actor, got %q, %v", owner, err)
	}

	owner, err = EffectiveOwner(actor, "alice")
	if err != nil || owner != "alice" {
		t.Fatalf("self request should resolve to the actor, got %q, %v", owner, err)
	}

	if _, err := EffectiveOwner(actor, "bob"); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("cross-owner request with standard key should be denied, got %v", err)
	}
}

func TestEffectiveOwner_AdminKey(t *testing.T) {
	actor := &ActorInfo{ActorID: "ops", KeyType: "admin"}

	owner, err := EffectiveOwner(actor, "bob")
	if err != nil || owner != "bob" {
		t.Fatalf("admin should act on the requested owner, got %q, %v", owner, err)
	}

	owner, err = EffectiveOwner(actor, "")
	if err != nil || owner != "ops" {
		t.Fatalf("admin with no requested owner acts as itself, got %q, %v", owner, err)
	}
}

func TestMockAuthorizer_Keys(t *testing.T) {
	m := NewMockAuthorizer()

	actor, err := m.Authorize(context.Background(), LocalDevAPIKey, "item.create", "default")
	if err != nil {
		t.Fatalf("dev key rejected: %v", err)
	}
	if actor.ActorID != "pantry-dev" || actor.IsAdmin() {
		t.Fatalf("unexpected dev actor: %+v", actor)
	}

	admin, err := m.Authorize(context.Background(), LocalDevAdminAPIKey, "item.create", "default")
	if err != nil {
		t.Fatalf("admin key rejected: %v", err)
	}
	if admin.ActorID != "pantry-admin" || !admin.IsAdmin() {
		t.Fatalf("unexpected admin actor: %+v", admin)
	}

	if _, err := m.Authorize(context.Background(), "sk_unknown", "item.create", "default"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("unknown key should be invalid, got %v", err)
	}
}

func TestStaticAuthorizer_ParseAndAuthorize(t *testing.T) {
	s, err := NewStaticAuthorizer("k1=alice, k2=ops:admin")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	actor, err := s.Authorize(context.Background(), "k1", "item.list", "default")
	if err != nil || actor.ActorID != "alice" || actor.IsAdmin() {
		t.Fatalf("unexpected standard actor: %+v, %v", actor, err)
	}

	admin, err := s.Authorize(context.Background(), "k2", "item.list", "default")
	if err != nil || admin.ActorID != "ops" || !admin.IsAdmin() {
		t.Fatalf("unexpected admin actor: %+v, %v", admin, err)
	}

	if _, err := s.Authorize(context.Background(), "k3", "item.list", "default"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("unknown key should be invalid, got %v", err)
	}
}

func TestStaticAuthorizer_RejectsMalformedSpec(t *testing.T) {
	cases := []string{
		"",
		"k1",
		"k1=",
		"=alice",
		"k1=alice:superuser",
		"k1=:admin",
	}
	for _, spec := range cases {
		if _, err := NewStaticAuthorizer(spec); err == nil {
			t.Fatalf("spec %q should be rejected", spec)
		}
	}
}

func TestExtractAPIKey(t *testing.T) {
	r := httptest.NewRequest("GET", "/v0/items", nil)
	if _, err := ExtractAPIKey(r); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("missing header should report missing key, got %v", err)
	}

	r.Header.Set("Authorization", "Bearer sk_test_123")
	key, err := ExtractAPIKey(r)
	if err != nil || key != "sk_test_123" {
		t.Fatalf("bearer extraction failed: %q, %v", key, err)
	}

	r.Header.Set("Authorization", "Basic sk_test_123")
	if _, err := ExtractAPIKey(r); err == nil {
		t.Fatalf("non-bearer scheme should be rejected")
	}
}
