package oauthstate

import (
	"errors"
	"testing"

	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/testutil"
)

func TestStore_CreateAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	st, err := store.Create(ctx, "/dashboard")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if st.State == "" {
		t.Fatal("state token should not be empty")
	}

	got, err := store.Consume(ctx, st.State)
	if err != nil {
		t.Fatalf("Consume() error = %v", err)
	}
	if got.RedirectTo != "/dashboard" {
		t.Errorf("RedirectTo = %q", got.RedirectTo)
	}

	// One-time use: a second redemption fails
	_, err = store.Consume(ctx, st.State)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Consume() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Consume_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Consume(ctx, "never-issued")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
