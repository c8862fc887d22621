package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iamwavecut/darkroom/internal/db"
	derrors "github.com/iamwavecut/darkroom/internal/errors"
)

func newTestClient(t *testing.T, dir string) *sqliteClient {
	t.Helper()

	client, err := NewSQLiteClient(context.Background(), dir, "test.db")
	if err != nil {
		t.Fatalf("new sqlite client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSuspensionLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	releaseAt := time.Now().Add(10 * time.Minute)
	if err := client.PutSuspension(ctx, db.NewSuspension("u1", "alice", "Alice in group", releaseAt, db.ReasonFlooding)); err != nil {
		t.Fatalf("put suspension: %v", err)
	}

	got, err := client.GetSuspension(ctx, "u1")
	if err != nil {
		t.Fatalf("get suspension: %v", err)
	}
	if got == nil {
		t.Fatalf("expected suspension to exist")
	}
	if got.UserName != "alice" || got.GroupName.String != "Alice in group" || got.Reason != db.ReasonFlooding {
		t.Fatalf("unexpected suspension: %#v", got)
	}
	if got.ReleaseAt != releaseAt.Unix() {
		t.Fatalf("unexpected release at: got %d want %d", got.ReleaseAt, releaseAt.Unix())
	}

	removed, err := client.DeleteSuspension(ctx, "u1")
	if err != nil {
		t.Fatalf("delete suspension: %v", err)
	}
	if !removed {
		t.Fatalf("expected row to be removed")
	}

	removed, err = client.DeleteSuspension(ctx, "u1")
	if err != nil {
		t.Fatalf("delete suspension again: %v", err)
	}
	if removed {
		t.Fatalf("second delete must report nothing removed")
	}

	got, err = client.GetSuspension(ctx, "u1")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no suspension after delete, got %#v", got)
	}
}

func TestPutSuspensionRejectsDuplicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	first := db.NewSuspension("u1", "alice", "", time.Now().Add(time.Minute), db.ReasonFlooding)
	second := db.NewSuspension("u1", "alice-renamed", "", time.Now().Add(time.Hour), db.ReasonBannedWord)

	if err := client.PutSuspension(ctx, first); err != nil {
		t.Fatalf("put first: %v", err)
	}
	if err := client.PutSuspension(ctx, second); !errors.Is(err, db.ErrAlreadySuspended) {
		t.Fatalf("expected ErrAlreadySuspended, got %v", err)
	}

	got, err := client.GetSuspension(ctx, "u1")
	if err != nil {
		t.Fatalf("get suspension: %v", err)
	}
	if got.UserName != "alice" || got.Reason != db.ReasonFlooding {
		t.Fatalf("existing record must be untouched: %#v", got)
	}
}

func TestPutSuspensionConcurrentExactlyOneWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		duplicate int
		other     []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.PutSuspension(ctx, db.NewSuspension("same-user", "bob", "", time.Now().Add(time.Minute), db.ReasonFlooding))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, db.ErrAlreadySuspended):
				duplicate++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if succeeded != 1 || duplicate != workers-1 {
		t.Fatalf("expected exactly one success, got %d successes and %d duplicates", succeeded, duplicate)
	}

	list, err := client.ListSuspensions(ctx)
	if err != nil {
		t.Fatalf("list suspensions: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected a single record, got %d", len(list))
	}
}

func TestPutSuspensionValidatesInput(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	tests := []struct {
		name       string
		suspension *db.Suspension
	}{
		{name: "nil", suspension: nil},
		{name: "empty user id", suspension: db.NewSuspension("", "x", "", time.Now().Add(time.Minute), db.ReasonFlooding)},
		{name: "release time not set", suspension: &db.Suspension{UserID: "u", UserName: "x", Reason: db.ReasonFlooding}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.PutSuspension(ctx, tt.suspension)
			if !errors.Is(err, derrors.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestFindSuspendedUserIDMatchesNameOrGroupAlias(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	releaseAt := time.Now().Add(time.Minute)
	for _, s := range []*db.Suspension{
		db.NewSuspension("u1", "alice", "Queen Alice", releaseAt, db.ReasonFlooding),
		db.NewSuspension("u2", "bob", "", releaseAt, db.ReasonBannedWord),
		db.NewSuspension("u3", "carol", "alice", releaseAt, db.ReasonFlooding),
	} {
		if err := client.PutSuspension(ctx, s); err != nil {
			t.Fatalf("put %s: %v", s.UserID, err)
		}
	}

	tests := []struct {
		name string
		want string
	}{
		{name: "bob", want: "u2"},
		{name: "Queen Alice", want: "u1"},
		{name: "alice", want: "u1"},
		{name: "dave", want: ""},
	}
	for _, tt := range tests {
		got, err := client.FindSuspendedUserID(ctx, tt.name)
		if err != nil {
			t.Fatalf("find %q: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("find %q: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func TestDeleteAllSuspensions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t, t.TempDir())

	releaseAt := time.Now().Add(time.Minute)
	for _, id := range []string{"u1", "u2", "u3"} {
		if err := client.PutSuspension(ctx, db.NewSuspension(id, id, "", releaseAt, db.ReasonFlooding)); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	removed, err := client.DeleteAllSuspensions(ctx)
	if err != nil {
		t.Fatalf("delete all: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}

	list, err := client.ListSuspensions(ctx)
	if err != nil {
		t.Fatalf("list suspensions: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty store, got %d", len(list))
	}
}

func TestSuspensionsSurviveReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewSQLiteClient(ctx, dir, "test.db")
	if err != nil {
		t.Fatalf("open first client: %v", err)
	}
	if err := first.PutSuspension(ctx, db.NewSuspension("u1", "alice", "", time.Now().Add(time.Hour), db.ReasonBannedWord)); err != nil {
		t.Fatalf("put suspension: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close first client: %v", err)
	}

	second := newTestClient(t, dir)
	got, err := second.GetSuspension(ctx, "u1")
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if got == nil || got.Reason != db.ReasonBannedWord {
		t.Fatalf("expected persisted suspension, got %#v", got)
	}
}
