package file

import (
	"errors"
	"testing"
	"time"

	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"github.com/codehaven/codehaven/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func strptr(s string) *string { return &s }

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	input := CreateInput{
		ProjectID: projectID,
		Name:      "main.js",
		Path:      "main.js",
		Type:      models.TypeFile,
		Content:   strptr("console.log('hi');\n"),
		RemoteID:  "remote-1",
		MimeType:  "application/javascript",
		Extension: "js",
		EditedBy:  primitive.NewObjectID(),
	}

	f, err := store.Create(ctx, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if f.ID.IsZero() {
		t.Error("ID should not be zero")
	}
	if f.SyncStatus != models.SyncSynced {
		t.Errorf("SyncStatus = %v, want synced", f.SyncStatus)
	}
	if f.Version != 0 {
		t.Errorf("Version = %d, want 0", f.Version)
	}
	if f.Size != int64(len(*input.Content)) {
		t.Errorf("Size = %d, want %d", f.Size, len(*input.Content))
	}
	if f.ParentID != nil {
		t.Error("ParentID should be nil for a root file")
	}
}

func TestStore_Create_EmptyContentIsFile(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	f, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "empty.txt",
		Path:      "empty.txt",
		Type:      models.TypeFile,
		Content:   strptr(""),
		EditedBy:  primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.GetByID(ctx, projectID, f.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Content == nil {
		t.Fatal("empty file content should round-trip as empty string, not nil")
	}
	if *got.Content != "" {
		t.Errorf("content = %q, want empty", *got.Content)
	}
}

func TestStore_Create_DuplicatePath(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	input := CreateInput{
		ProjectID: projectID,
		Name:      "app.py",
		Path:      "app.py",
		Type:      models.TypeFile,
		Content:   strptr("print('hi')"),
		EditedBy:  primitive.NewObjectID(),
	}

	if _, err := store.Create(ctx, input); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err := store.Create(ctx, input)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate path: error = %v, want ErrConflict", err)
	}
}

func TestStore_GetByPath_ProjectScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectA := primitive.NewObjectID()
	projectB := primitive.NewObjectID()

	if _, err := store.Create(ctx, CreateInput{
		ProjectID: projectA,
		Name:      "index.html",
		Path:      "index.html",
		Type:      models.TypeFile,
		Content:   strptr("<html></html>"),
		EditedBy:  primitive.NewObjectID(),
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := store.GetByPath(ctx, projectA, "index.html"); err != nil {
		t.Errorf("GetByPath() in owning project: error = %v", err)
	}

	_, err := store.GetByPath(ctx, projectB, "index.html")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetByPath() in other project: error = %v, want ErrNotFound", err)
	}
}

func TestStore_SetContent_BumpsVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	editor := primitive.NewObjectID()
	f, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "main.py",
		Path:      "main.py",
		Type:      models.TypeFile,
		Content:   strptr("v0"),
		EditedBy:  editor,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.SetContent(ctx, f.ID, "v1", "hash-1", editor); err != nil {
		t.Fatalf("SetContent() error = %v", err)
	}
	if err := store.SetContent(ctx, f.ID, "v2", "hash-2", editor); err != nil {
		t.Fatalf("SetContent() error = %v", err)
	}

	got, err := store.GetByID(ctx, projectID, f.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Version = %d, want 2", got.Version)
	}
	if got.SyncStatus != models.SyncSyncing {
		t.Errorf("SyncStatus = %v, want syncing", got.SyncStatus)
	}
	if got.ContentString() != "v2" {
		t.Errorf("content = %q, want v2", got.ContentString())
	}
	if got.LocalHash != "hash-2" {
		t.Errorf("LocalHash = %q, want hash-2", got.LocalHash)
	}
}

func TestStore_SetContent_Missing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.SetContent(ctx, primitive.NewObjectID(), "x", "h", primitive.NewObjectID())
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStore_MarkSyncedAndError(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	editor := primitive.NewObjectID()
	f, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "a.txt",
		Path:      "a.txt",
		Type:      models.TypeFile,
		Content:   strptr("a"),
		EditedBy:  editor,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := store.SetContent(ctx, f.ID, "b", "hash-b", editor); err != nil {
		t.Fatalf("SetContent() error = %v", err)
	}
	if err := store.MarkSynced(ctx, f.ID, "hash-b"); err != nil {
		t.Fatalf("MarkSynced() error = %v", err)
	}

	got, _ := store.GetByID(ctx, projectID, f.ID)
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("SyncStatus = %v, want synced", got.SyncStatus)
	}
	if got.RemoteHash != "hash-b" {
		t.Errorf("RemoteHash = %q, want hash-b", got.RemoteHash)
	}
	if got.LastSyncedAt == nil {
		t.Error("LastSyncedAt should be set")
	}

	if err := store.MarkSyncError(ctx, f.ID); err != nil {
		t.Fatalf("MarkSyncError() error = %v", err)
	}
	got, _ = store.GetByID(ctx, projectID, f.ID)
	if got.SyncStatus != models.SyncError {
		t.Errorf("SyncStatus = %v, want error", got.SyncStatus)
	}
}

func TestStore_ReplaceContentFromRemote_KeepsVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	editor := primitive.NewObjectID()
	f, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "notes.md",
		Path:      "notes.md",
		Type:      models.TypeFile,
		Content:   strptr("local"),
		EditedBy:  editor,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.SetContent(ctx, f.ID, "local-2", "lh", editor); err != nil {
		t.Fatalf("SetContent() error = %v", err)
	}

	if err := store.ReplaceContentFromRemote(ctx, f.ID, "remote wins", "rh"); err != nil {
		t.Fatalf("ReplaceContentFromRemote() error = %v", err)
	}

	got, _ := store.GetByID(ctx, projectID, f.ID)
	if got.ContentString() != "remote wins" {
		t.Errorf("content = %q", got.ContentString())
	}
	if got.Version != 1 {
		t.Errorf("Version = %d, want 1 (remote refresh must not bump version)", got.Version)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("SyncStatus = %v, want synced", got.SyncStatus)
	}
	if got.LocalHash != "rh" || got.RemoteHash != "rh" {
		t.Errorf("hashes = %q/%q, want rh/rh", got.LocalHash, got.RemoteHash)
	}
}

func TestStore_RewritePathPrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	editor := primitive.NewObjectID()

	folder, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "src",
		Path:      "src",
		Type:      models.TypeFolder,
		EditedBy:  editor,
	})
	if err != nil {
		t.Fatalf("Create(folder) error = %v", err)
	}
	for _, p := range []string{"src/a.js", "src/lib/b.js", "srcx.js"} {
		if _, err := store.Create(ctx, CreateInput{
			ProjectID: projectID,
			Name:      p,
			Path:      p,
			Type:      models.TypeFile,
			Content:   strptr(""),
			EditedBy:  editor,
		}); err != nil {
			t.Fatalf("Create(%s) error = %v", p, err)
		}
	}

	if err := store.RewritePathPrefix(ctx, projectID, "src", "source"); err != nil {
		t.Fatalf("RewritePathPrefix() error = %v", err)
	}

	if _, err := store.GetByPath(ctx, projectID, "source/a.js"); err != nil {
		t.Errorf("descendant not rewritten: %v", err)
	}
	if _, err := store.GetByPath(ctx, projectID, "source/lib/b.js"); err != nil {
		t.Errorf("nested descendant not rewritten: %v", err)
	}
	// Sibling with a shared name prefix must not be touched
	if _, err := store.GetByPath(ctx, projectID, "srcx.js"); err != nil {
		t.Errorf("sibling rewritten by mistake: %v", err)
	}
	// The folder's own record is the caller's responsibility
	got, err := store.GetByID(ctx, projectID, folder.ID)
	if err != nil {
		t.Fatalf("GetByID(folder) error = %v", err)
	}
	if got.Path != "src" {
		t.Errorf("folder path = %q, want src", got.Path)
	}
}

func TestStore_DeleteByProjectAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	editor := primitive.NewObjectID()

	if _, err := store.Create(ctx, CreateInput{
		ProjectID: projectID, Name: "docs", Path: "docs",
		Type: models.TypeFolder, EditedBy: editor,
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, p := range []string{"docs/a.md", "docs/b.md"} {
		if _, err := store.Create(ctx, CreateInput{
			ProjectID: projectID, Name: p, Path: p,
			Type: models.TypeFile, Content: strptr(""), EditedBy: editor,
		}); err != nil {
			t.Fatalf("Create(%s) error = %v", p, err)
		}
	}

	count, err := store.CountFiles(ctx, projectID)
	if err != nil {
		t.Fatalf("CountFiles() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountFiles() = %d, want 2 (folders excluded)", count)
	}

	deleted, err := store.DeleteByProject(ctx, projectID)
	if err != nil {
		t.Fatalf("DeleteByProject() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("DeleteByProject() = %d, want 3", deleted)
	}
}

func TestStore_DemoteStaleSyncing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	projectID := primitive.NewObjectID()
	editor := primitive.NewObjectID()

	stuck, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "stuck.js",
		Path:      "stuck.js",
		Type:      models.TypeFile,
		Content:   strptr("a"),
		EditedBy:  editor,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	settled, err := store.Create(ctx, CreateInput{
		ProjectID: projectID,
		Name:      "settled.js",
		Path:      "settled.js",
		Type:      models.TypeFile,
		Content:   strptr("b"),
		EditedBy:  editor,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Leaves stuck.js in the syncing state with no settling mirror.
	if err := store.SetContent(ctx, stuck.ID, "edit", "hash", editor); err != nil {
		t.Fatalf("SetContent() error = %v", err)
	}

	// A cutoff in the past must not demote a freshly written record.
	demoted, err := store.DemoteStaleSyncing(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("DemoteStaleSyncing() error = %v", err)
	}
	if demoted != 0 {
		t.Errorf("DemoteStaleSyncing(past cutoff) = %d, want 0", demoted)
	}

	demoted, err = store.DemoteStaleSyncing(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("DemoteStaleSyncing() error = %v", err)
	}
	if demoted != 1 {
		t.Errorf("DemoteStaleSyncing() = %d, want 1", demoted)
	}

	got, _ := store.GetByID(ctx, projectID, stuck.ID)
	if got.SyncStatus != models.SyncError {
		t.Errorf("stuck SyncStatus = %v, want error", got.SyncStatus)
	}
	got, _ = store.GetByID(ctx, projectID, settled.ID)
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("settled SyncStatus = %v, want synced", got.SyncStatus)
	}
}
