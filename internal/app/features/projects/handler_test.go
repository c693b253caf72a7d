package projects

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	filestore "github.com/codehaven/codehaven/internal/app/store/file"
	projectstore "github.com/codehaven/codehaven/internal/app/store/project"
	"github.com/codehaven/codehaven/internal/app/system/auth"
	"github.com/codehaven/codehaven/internal/app/system/syncengine"
	"github.com/codehaven/codehaven/internal/domain/apperr"
	"github.com/codehaven/codehaven/internal/domain/models"
	"github.com/codehaven/codehaven/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeRemote is an in-memory remote store for handler tests.
type fakeRemote struct {
	mu      sync.Mutex
	nextID  int
	content map[string]string
	deleted []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{content: map[string]string{}}
}

func (r *fakeRemote) newID() string {
	r.nextID++
	return fmt.Sprintf("remote-%d", r.nextID)
}

func (r *fakeRemote) EnsureFolder(_ context.Context, _, _, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newID(), nil
}

func (r *fakeRemote) CreateFolder(_ context.Context, _, _, _ string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newID(), nil
}

func (r *fakeRemote) CreateFile(_ context.Context, _, _, _, _, content string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.newID()
	r.content[id] = content
	return id, nil
}

func (r *fakeRemote) UpdateContent(_ context.Context, _, fileID, content string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content[fileID] = content
	return nil
}

func (r *fakeRemote) Download(_ context.Context, _, fileID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.content[fileID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return c, nil
}

func (r *fakeRemote) Rename(_ context.Context, _, _, _ string) error { return nil }

func (r *fakeRemote) Move(_ context.Context, _, _, _, _ string) error { return nil }

func (r *fakeRemote) Delete(_ context.Context, _, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, fileID)
	delete(r.content, fileID)
	return nil
}

type fakeCreds struct {
	token string
	err   error
}

func (c fakeCreds) AccessToken(context.Context, *models.User) (string, error) {
	return c.token, c.err
}

// asUser injects a fixed user, standing in for the bearer-token middleware.
func asUser(u *models.User) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, auth.WithTestUser(r, u))
		})
	}
}

func newTestUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		GoogleID: "g-" + primitive.NewObjectID().Hex(),
		Email:    "dev@example.com",
		Name:     "Dev",
	}
}

func setup(t *testing.T, creds syncengine.CredentialSource) (http.Handler, *models.User) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	files := filestore.New(db)
	projects := projectstore.New(db)
	engine := syncengine.New(files, projects, newFakeRemote(), creds, "Codehaven Projects", logger)

	u := newTestUser()
	h := NewHandler(projects, files, engine, logger)
	return Routes(h, asUser(u)), u
}

func doJSON(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateProject(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	rec := doJSON(t, router, http.MethodPost, "/", map[string]any{
		"name":     "My App",
		"language": "javascript",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	resp := decode(t, rec)
	proj, ok := resp["project"].(map[string]any)
	if !ok {
		t.Fatalf("response missing project: %v", resp)
	}
	if proj["name"] != "My App" {
		t.Errorf("project name = %v, want My App", proj["name"])
	}
	if proj["fileCount"] != float64(3) {
		t.Errorf("fileCount = %v, want 3", proj["fileCount"])
	}

	seeded, ok := resp["files"].([]any)
	if !ok || len(seeded) != 3 {
		t.Fatalf("seeded files = %v, want 3 entries", resp["files"])
	}
	for _, s := range seeded {
		f := s.(map[string]any)
		if f["created"] != true {
			t.Errorf("template %v not created: %v", f["name"], f["error"])
		}
	}
}

func TestCreateProject_Validation(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	rec := doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank name status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "Dup"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "dup"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate name status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestCreateProject_NoDriveGrant(t *testing.T) {
	router, _ := setup(t, fakeCreds{err: apperr.ErrAuthRequired})

	rec := doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "My App"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	resp := decode(t, rec)
	if resp["code"] != "DRIVE_AUTH_REQUIRED" {
		t.Errorf("code = %v, want DRIVE_AUTH_REQUIRED", resp["code"])
	}
}

func TestGetProject_WithTree(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	rec := doJSON(t, router, http.MethodPost, "/", map[string]any{
		"name":     "Tree",
		"language": "python",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	id := decode(t, rec)["project"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodGet, "/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode(t, rec)
	tree, ok := resp["tree"].([]any)
	if !ok || len(tree) != 3 {
		t.Fatalf("tree = %v, want 3 root nodes", resp["tree"])
	}
}

func TestGetProject_NotFound(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	rec := doJSON(t, router, http.MethodGet, "/"+primitive.NewObjectID().Hex(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doJSON(t, router, http.MethodGet, "/not-an-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed id status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListProjects(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	for _, name := range []string{"One", "Two"} {
		rec := doJSON(t, router, http.MethodPost, "/", map[string]any{"name": name})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %s status = %d", name, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	list, ok := decode(t, rec)["projects"].([]any)
	if !ok || len(list) != 2 {
		t.Fatalf("projects = %v, want 2 entries", list)
	}
}

func TestUpdateProject(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	rec := doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "Before"})
	id := decode(t, rec)["project"].(map[string]any)["id"].(string)
	doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "Taken"})

	rec = doJSON(t, router, http.MethodPut, "/"+id, map[string]any{"name": "After"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["project"].(map[string]any)["name"]; got != "After" {
		t.Errorf("name = %v, want After", got)
	}

	rec = doJSON(t, router, http.MethodPut, "/"+id, map[string]any{"name": "Taken"})
	if rec.Code != http.StatusConflict {
		t.Errorf("rename to taken name status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doJSON(t, router, http.MethodPut, "/"+id, map[string]any{
		"settings": map[string]any{"tabSize": 2},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings update status = %d", rec.Code)
	}
	settings, _ := decode(t, rec)["project"].(map[string]any)["settings"].(map[string]any)
	if settings["tabSize"] != float64(2) {
		t.Errorf("settings = %v, want tabSize 2", settings)
	}
}

func TestDeleteProject(t *testing.T) {
	router, _ := setup(t, fakeCreds{token: "tok"})

	rec := doJSON(t, router, http.MethodPost, "/", map[string]any{"name": "Doomed"})
	id := decode(t, rec)["project"].(map[string]any)["id"].(string)

	rec = doJSON(t, router, http.MethodDelete, "/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode(t, rec)["deletedFiles"]; got != float64(3) {
		t.Errorf("deletedFiles = %v, want 3", got)
	}

	rec = doJSON(t, router, http.MethodGet, "/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestProjectOwnership(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	files := filestore.New(db)
	projects := projectstore.New(db)
	engine := syncengine.New(files, projects, newFakeRemote(), fakeCreds{token: "tok"}, "Codehaven Projects", logger)
	h := NewHandler(projects, files, engine, logger)

	owner := newTestUser()
	ownerRouter := Routes(h, asUser(owner))
	rec := doJSON(t, ownerRouter, http.MethodPost, "/", map[string]any{"name": "Private"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	id := decode(t, rec)["project"].(map[string]any)["id"].(string)

	strangerRouter := Routes(h, asUser(newTestUser()))
	rec = doJSON(t, strangerRouter, http.MethodGet, "/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger get status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = doJSON(t, strangerRouter, http.MethodDelete, "/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("stranger delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
