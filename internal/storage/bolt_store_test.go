package storage

import (
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func TestBoltStoreSavesAndExpiresValidators(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		ValidatorTTL:    time.Minute,
		CleanupInterval: time.Hour,
	}

	storeRaw, err := openBolt(dir+"/validators.db", opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	store.lastCleanup.Store(now.Unix())

	if _, found, err := store.LastModified("frc254"); err != nil || found {
		t.Fatalf("expected no validator, found=%v err=%v", found, err)
	}

	const stamp = "Fri, 01 Mar 2024 11:00:00 GMT"
	if err := store.SaveLastModified("frc254", stamp); err != nil {
		t.Fatalf("SaveLastModified: %v", err)
	}

	got, found, err := store.LastModified("frc254")
	if err != nil || !found || got != stamp {
		t.Fatalf("expected %q, got %q found=%v err=%v", stamp, got, found, err)
	}

	now = now.Add(2 * time.Minute)
	if _, found, err := store.LastModified("frc254"); err != nil || found {
		t.Fatalf("expected validator to expire, found=%v err=%v", found, err)
	}
}

func TestBoltStoreCleanupRemovesExpired(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/validators.db", Options{
		ValidatorTTL:    time.Minute,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	store := storeRaw.(*boltStore)
	defer store.Close()

	now := time.Now()
	store.now = func() time.Time { return now }
	store.lastCleanup.Store(now.Unix())

	if err := store.SaveLastModified("old", "v1"); err != nil {
		t.Fatalf("SaveLastModified: %v", err)
	}

	now = now.Add(5 * time.Minute)
	if err := store.SaveLastModified("new", "v2"); err != nil {
		t.Fatalf("SaveLastModified: %v", err)
	}

	count := 0
	if err := store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(validatorBucket)).ForEach(func(_, _ []byte) error {
			count++
			return nil
		})
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the fresh entry to survive cleanup, got %d", count)
	}
}

func TestSaveEmptyValidatorDeletes(t *testing.T) {
	storeRaw, err := openBolt(t.TempDir()+"/validators.db", Options{ValidatorTTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer storeRaw.Close()

	if err := storeRaw.SaveLastModified("k", "v"); err != nil {
		t.Fatalf("SaveLastModified: %v", err)
	}
	if err := storeRaw.SaveLastModified("k", ""); err != nil {
		t.Fatalf("SaveLastModified empty: %v", err)
	}
	if _, found, _ := storeRaw.LastModified("k"); found {
		t.Fatalf("expected entry removed")
	}
}

func TestNewStoreSupportsNoop(t *testing.T) {
	store, err := NewStore("none", "", Options{})
	if err != nil {
		t.Fatalf("NewStore none: %v", err)
	}
	if err := store.SaveLastModified("x", "y"); err != nil {
		t.Fatalf("noop store SaveLastModified: %v", err)
	}
	if _, found, _ := store.LastModified("x"); found {
		t.Fatalf("noop store should never find validators")
	}
}

func TestNewStoreRejectsUnknownType(t *testing.T) {
	if _, err := NewStore("redis", "", Options{}); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}
