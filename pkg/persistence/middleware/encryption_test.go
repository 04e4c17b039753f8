package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/cloud8421/recipe/pkg/adapters/memory"
	"github.com/cloud8421/recipe/pkg/domain"
	"github.com/cloud8421/recipe/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func paymentRecord() *domain.RunRecord {
	return &domain.RunRecord{
		CorrelationID: "test-run",
		Recipe:        "checkout",
		Status:        domain.RunFailed,
		FailedStep:    "charge",
		Error:         "card declined for 4111-1111",
		Values:        map[string]any{"card_number": "4111-1111", "amount": "12.50"},
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlying)

	ctx := context.Background()
	original := paymentRecord()

	// 1. Save
	if err := secureStore.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// 2. Verify the underlying store directly (should be an envelope)
	stored, err := underlying.Load(ctx, "test-run")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if val, ok := stored.Values["card_number"]; ok {
		t.Fatalf("Expected values to be hidden, found: %v", val)
	}
	if _, ok := stored.Values["__encrypted__"]; !ok {
		t.Fatal("Expected __encrypted__ field in values")
	}
	if stored.FailedStep != "" || stored.Error != "" {
		t.Errorf("Expected failure details hidden, got step=%q error=%q", stored.FailedStep, stored.Error)
	}
	// Routing metadata stays readable for listing and monitoring.
	if stored.Recipe != "checkout" || stored.Status != domain.RunFailed {
		t.Errorf("Expected readable metadata, got %+v", stored)
	}

	// 3. Load via middleware (should be decrypted)
	loaded, err := secureStore.Load(ctx, "test-run")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Values["card_number"] != "4111-1111" {
		t.Errorf("Expected decrypted values, got %v", loaded.Values)
	}
	if loaded.FailedStep != "charge" {
		t.Errorf("Expected decrypted failed step, got %q", loaded.FailedStep)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()

	oldKey := generateKey(t)
	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	if err := oldStore.Save(ctx, paymentRecord()); err != nil {
		t.Fatalf("Save with old key failed: %v", err)
	}

	// Rotate: new active key, old key kept as fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := rotated.Load(ctx, "test-run")
	if err != nil {
		t.Fatalf("Load after rotation failed: %v", err)
	}
	if loaded.Values["amount"] != "12.50" {
		t.Errorf("Expected old-key record to decrypt via fallback, got %v", loaded.Values)
	}

	// Without the fallback the record is unreadable.
	strict := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	if _, err := strict.Load(ctx, "test-run"); err == nil {
		t.Fatal("Expected decryption to fail without the original key")
	}
}

func TestEncryptionMiddleware_FailsSecureOnPlaintext(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()

	// A plaintext record written before encryption was enabled.
	if err := underlying.Save(ctx, paymentRecord()); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	if _, err := secureStore.Load(ctx, "test-run"); err == nil {
		t.Fatal("Expected load of a non-envelope record to fail")
	}
}

func TestEncryptionMiddleware_ListDecrypts(t *testing.T) {
	underlying := memory.NewStore()
	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	ctx := context.Background()

	if err := secureStore.Save(ctx, paymentRecord()); err != nil {
		t.Fatal(err)
	}

	recs, err := secureStore.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 || recs[0].Values["card_number"] != "4111-1111" {
		t.Errorf("Expected listed records decrypted, got %+v", recs)
	}
}

func TestEncryptionMiddleware_RejectsShortKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected a short key to panic at construction")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
}
