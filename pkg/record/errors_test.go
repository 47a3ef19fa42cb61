package record

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := Validationf(KindObject, "object name %q already taken", "pump-1")
	if err.Error() != `object: object name "pump-1" already taken` {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if err.ExistingID != 0 {
		t.Fatalf("plain validation error must not carry an existing id")
	}
	if !IsValidation(err) {
		t.Fatalf("IsValidation should match")
	}
	wrapped := fmt.Errorf("insert: %w", err)
	var ve *ValidationError
	if !errors.As(wrapped, &ve) || ve.Kind != KindObject {
		t.Fatalf("errors.As through wrap failed")
	}
}

func TestDuplicateCarriesExistingID(t *testing.T) {
	err := Duplicatef(KindAlternative, 7, "alternative name %q already taken", "base")
	if err.ExistingID != 7 {
		t.Fatalf("expected existing id 7, got %d", err.ExistingID)
	}
	if !IsValidation(err) {
		t.Fatalf("duplicate is a validation error")
	}
}

func TestNotFoundError(t *testing.T) {
	byID := NotFound(KindObject, 42)
	if byID.Error() != "object 42 not found" {
		t.Fatalf("unexpected message: %s", byID.Error())
	}
	byName := NotFoundName(KindScenario, "baseline")
	if byName.Error() != `scenario "baseline" not found` {
		t.Fatalf("unexpected message: %s", byName.Error())
	}
	if !IsNotFound(byID) || !IsNotFound(fmt.Errorf("get: %w", byName)) {
		t.Fatalf("IsNotFound should match directly and through wraps")
	}
	if IsNotFound(Validationf(KindObject, "x")) {
		t.Fatalf("IsNotFound must not match validation errors")
	}
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("apply", cause)
	if err.Error() != "storage apply: disk full" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatalf("StorageError must unwrap to its cause")
	}
}

func TestLockContentionError(t *testing.T) {
	cause := errors.New("database is locked")
	err := &LockContentionError{Owner: "ops@host", Err: cause}
	if err.Error() != "cursor claim by ops@host lost to contention: database is locked" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !IsLockContention(err) || !IsLockContention(fmt.Errorf("allocate: %w", err)) {
		t.Fatalf("IsLockContention should match directly and through wraps")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("LockContentionError must unwrap to its cause")
	}
	anon := &LockContentionError{Err: cause}
	if anon.Error() != "cursor claim lost to contention: database is locked" {
		t.Fatalf("unexpected ownerless message: %s", anon.Error())
	}
}

func TestErrorLogKeepsOrder(t *testing.T) {
	var log ErrorLog
	log = append(log, Validationf(KindObject, "first"), NotFound(KindObject, 9), Validationf(KindObject, "third"))
	if len(log) != 3 {
		t.Fatalf("expected three entries")
	}
	if !IsValidation(log[0]) || !IsNotFound(log[1]) || !IsValidation(log[2]) {
		t.Fatalf("log order not preserved: %v", log)
	}
}
