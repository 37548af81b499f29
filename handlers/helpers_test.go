package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"customerdash/backend/blob"
	"customerdash/backend/database"
	"customerdash/backend/middleware"
	"customerdash/backend/services"
	"customerdash/backend/store"
)

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// flakyStorage wraps a memory store and can be told to fail writes.
type flakyStorage struct {
	*database.MemoryStore
	failSaves bool
}

func (f *flakyStorage) Save(ctx context.Context, key string, data []byte) error {
	if f.failSaves {
		return errors.New("disk full")
	}
	return f.MemoryStore.Save(ctx, key, data)
}

type testEnv struct {
	router  *mux.Router
	store   *store.Store
	storage *flakyStorage
	filters *services.FilterService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	storage := &flakyStorage{MemoryStore: database.NewMemoryStore()}
	n := 0
	st := store.New(context.Background(), storage,
		store.WithClock(func() time.Time { return testNow }),
		store.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("c%d", n)
		}))
	filters := services.NewFilterService(storage)
	imports := services.NewImportService(st, store.NewUploadLog(storage, nil),
		services.WithArchive(blob.NewMemory()),
		services.WithImportClock(func() time.Time { return testNow }))

	customers := NewCustomerHandler(st, filters, nil)
	reports := NewReportHandler(st, filters, func() time.Time { return testNow }, nil)
	uploads := NewImportHandler(imports, 1<<20, nil)
	saved := NewFilterHandler(filters, nil)

	r := mux.NewRouter()
	r.HandleFunc("/health", Health(st)).Methods(http.MethodGet)
	r.HandleFunc("/customers", customers.List).Methods(http.MethodGet)
	r.HandleFunc("/customers", customers.Add).Methods(http.MethodPost)
	r.HandleFunc("/customers", customers.RemoveMany).Methods(http.MethodDelete)
	r.HandleFunc("/customers/search", customers.Search).Methods(http.MethodPost)
	r.HandleFunc("/customers/batch", customers.AddBatch).Methods(http.MethodPost)
	r.HandleFunc("/customers/{id}", customers.Get).Methods(http.MethodGet)
	r.HandleFunc("/customers/{id}", customers.Edit).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/customers/{id}", customers.Remove).Methods(http.MethodDelete)
	r.HandleFunc("/customers/{id}/copy", customers.Copy).Methods(http.MethodPost)
	r.HandleFunc("/reports/summary", reports.Summary).Methods(http.MethodGet)
	r.HandleFunc("/reports/group-count", reports.GroupCount).Methods(http.MethodGet)
	r.HandleFunc("/reports/group-median", reports.GroupMedian).Methods(http.MethodGet)
	r.HandleFunc("/reports/group-max", reports.GroupMax).Methods(http.MethodGet)
	r.HandleFunc("/reports/marital-split", reports.MaritalSplit).Methods(http.MethodGet)
	r.HandleFunc("/imports", uploads.Upload).Methods(http.MethodPost)
	r.HandleFunc("/imports/files", uploads.Files).Methods(http.MethodGet)
	r.HandleFunc("/filters", saved.List).Methods(http.MethodGet)
	r.HandleFunc("/filters", saved.Create).Methods(http.MethodPost)
	r.HandleFunc("/filters/default", saved.Default).Methods(http.MethodGet)
	r.HandleFunc("/filters/{id}", saved.Get).Methods(http.MethodGet)
	r.HandleFunc("/filters/{id}", saved.Update).Methods(http.MethodPut)
	r.HandleFunc("/filters/{id}", saved.Delete).Methods(http.MethodDelete)

	return &testEnv{router: r, store: st, storage: storage, filters: filters}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, "", method, path, body)
}

// doAs sends the request with userID attached the way the authenticator
// does.
func (e *testEnv) doAs(t *testing.T, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			rdr = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			rdr = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}
