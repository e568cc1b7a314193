package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-channel-digest/internal/domain"
)

func newSubscriptionDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Subscription{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// ----- Fake repo -----

type failingRepo struct{ err error }

func (r failingRepo) AddSubscription(context.Context, *gorm.DB, string, string) (bool, error) {
	return false, r.err
}
func (r failingRepo) RemoveSubscription(context.Context, *gorm.DB, string, string) (bool, error) {
	return false, r.err
}
func (r failingRepo) ListChannels(context.Context, *gorm.DB, string) ([]string, error) {
	return nil, r.err
}
func (r failingRepo) SubscriptionStats(context.Context, *gorm.DB, string) (int64, *time.Time, uint, error) {
	return 0, nil, 0, r.err
}

func TestSubscriptionService_AddIsIdempotent(t *testing.T) {
	svc := NewSubscriptionService(newSubscriptionDB(t), nil)
	ctx := context.Background()

	ch, created, err := svc.AddChannel(ctx, "u1", "News")
	if err != nil || !created || ch != "@news" {
		t.Fatalf("first AddChannel = %q, %v, %v", ch, created, err)
	}
	// Same channel in different spellings
	for _, raw := range []string{"@news", "https://t.me/news", "  NEWS "} {
		if err := svc.Add(ctx, "u1", raw); err != nil {
			t.Fatalf("Add(%q): %v", raw, err)
		}
	}
	got, err := svc.List(ctx, "u1")
	if err != nil || !reflect.DeepEqual(got, []string{"@news"}) {
		t.Fatalf("List = %v, %v; want [@news]", got, err)
	}
}

func TestSubscriptionService_AddThroughChannelStore(t *testing.T) {
	var store ChannelStore = NewSubscriptionService(newSubscriptionDB(t), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := store.Add(ctx, "u1", "https://t.me/durov"); err != nil {
			t.Fatalf("Add #%d: %v", i+1, err)
		}
	}
	if err := store.Add(ctx, "u1", ""); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("Add empty = %v; want ErrInvalidChannel", err)
	}
	got, err := store.List(ctx, "u1")
	if err != nil || !reflect.DeepEqual(got, []string{"@durov"}) {
		t.Fatalf("List = %v, %v; want [@durov]", got, err)
	}
}

func TestSubscriptionService_ListOrderAndEmpty(t *testing.T) {
	svc := NewSubscriptionService(newSubscriptionDB(t), nil)
	ctx := context.Background()

	got, err := svc.List(ctx, "u1")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("empty List = %#v, %v", got, err)
	}

	for _, c := range []string{"@b", "@a", "@c"} {
		if err := svc.Add(ctx, "u1", c); err != nil {
			t.Fatal(err)
		}
	}
	got, _ = svc.List(ctx, "u1")
	if !reflect.DeepEqual(got, []string{"@b", "@a", "@c"}) {
		t.Fatalf("List = %v; want insertion order", got)
	}
}

func TestSubscriptionService_Remove(t *testing.T) {
	svc := NewSubscriptionService(newSubscriptionDB(t), nil)
	ctx := context.Background()

	removed, err := svc.Remove(ctx, "u1", "@news")
	if err != nil || removed {
		t.Fatalf("remove unmonitored = %v, %v; want false, nil", removed, err)
	}

	_ = svc.Add(ctx, "u1", "@news")
	removed, err = svc.Remove(ctx, "u1", "news")
	if err != nil || !removed {
		t.Fatalf("remove monitored = %v, %v; want true, nil", removed, err)
	}
	if got, _ := svc.List(ctx, "u1"); len(got) != 0 {
		t.Fatalf("List after remove = %v", got)
	}
}

func TestSubscriptionService_Validation(t *testing.T) {
	svc := NewSubscriptionService(newSubscriptionDB(t), nil)
	ctx := context.Background()

	if err := svc.Add(ctx, "", "@news"); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("missing user: %v", err)
	}
	if err := svc.Add(ctx, "u1", "   "); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("blank channel: %v", err)
	}
	if _, err := svc.Remove(ctx, "u1", "bad name"); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("invalid channel on remove: %v", err)
	}
	if _, err := svc.List(ctx, " "); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("list without user: %v", err)
	}
}

func TestSubscriptionService_StorageErrors(t *testing.T) {
	boom := errors.New("disk full")
	svc := NewSubscriptionService(nil, failingRepo{err: boom})
	ctx := context.Background()

	checks := map[string]error{}
	checks["add"] = svc.Add(ctx, "u1", "@news")
	_, checks["remove"] = svc.Remove(ctx, "u1", "@news")
	_, checks["list"] = svc.List(ctx, "u1")
	_, _, _, checks["stats"] = svc.Version(ctx, "u1")

	for op, err := range checks {
		var se *StorageError
		if !errors.As(err, &se) || se.Op != op || !errors.Is(err, boom) {
			t.Fatalf("%s: err = %v; want *StorageError{Op:%q}", op, err, op)
		}
	}
}

func TestSubscriptionService_VersionChangesWithList(t *testing.T) {
	svc := NewSubscriptionService(newSubscriptionDB(t), nil)
	ctx := context.Background()

	n0, _, id0, err := svc.Version(ctx, "u1")
	if err != nil || n0 != 0 || id0 != 0 {
		t.Fatalf("empty version = %d/%d, %v", n0, id0, err)
	}
	_ = svc.Add(ctx, "u1", "@a")
	n1, latest, id1, _ := svc.Version(ctx, "u1")
	if n1 != 1 || latest == nil || id1 == 0 {
		t.Fatalf("version after add = %d/%v/%d", n1, latest, id1)
	}
	_, _ = svc.Remove(ctx, "u1", "@a")
	_ = svc.Add(ctx, "u1", "@b")
	n2, latest2, id2, _ := svc.Version(ctx, "u1")
	if n2 != 1 || (id2 == id1 && latest2.Equal(*latest)) {
		t.Fatalf("replace should change version: %d/%d vs %d/%d", n1, id1, n2, id2)
	}
}

func TestStorageErr_NoDoubleWrap(t *testing.T) {
	inner := &StorageError{Op: "list", Err: errors.New("x")}
	if got := storageErr("other", inner); got != error(inner) {
		t.Fatalf("storageErr re-wrapped an existing StorageError: %v", got)
	}
	if storageErr("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}
