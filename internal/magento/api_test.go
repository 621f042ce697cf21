package magento

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mounirtms/techno-etl/internal/magento/models"
	"github.com/mounirtms/techno-etl/internal/ratelimit"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := NewAPI(ClientConfig{
		BaseURL:        srv.URL,
		Username:       "admin",
		Password:       "secret",
		RetryAttempts:  3,
		RetryBaseDelay: 5 * time.Millisecond,
		TokenTTL:       time.Hour,
	}, ratelimit.New(1000, 1000, 16, 0))
	return client, srv
}

func writeToken(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(token)
}

func TestLoginCachesToken(t *testing.T) {
	var logins int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&logins, 1)
		var creds map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "admin", creds["username"])
		writeToken(w, "tok-1")
	})
	mux.HandleFunc("/rest/V1/products/A", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.Product{SKU: "A"})
	})

	client, _ := testClient(t, mux)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, found, err := client.GetProductBySku(ctx, "A")
		require.NoError(t, err)
		assert.True(t, found)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&logins))
}

// An expired token must trigger exactly one re-login followed by one
// retry of the failed request.
func TestSingleReloginOn401(t *testing.T) {
	var logins, productCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&logins, 1)
		if n == 1 {
			writeToken(w, "stale")
			return
		}
		writeToken(w, "fresh")
	})
	mux.HandleFunc("/rest/V1/products/B", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&productCalls, 1)
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(models.Product{SKU: "B"})
	})

	client, _ := testClient(t, mux)

	p, found, err := client.GetProductBySku(context.Background(), "B")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "B", p.SKU)
	assert.Equal(t, int32(2), atomic.LoadInt32(&logins))
	assert.Equal(t, int32(2), atomic.LoadInt32(&productCalls))
}

func TestPersistent401IsAuthExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "always-stale")
	})
	mux.HandleFunc("/rest/V1/products/C", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := testClient(t, mux)

	_, _, err := client.GetProductBySku(context.Background(), "C")
	require.Error(t, err)
	assert.Equal(t, ClassAuthExpired, ClassOf(err))
}

func TestNotFoundIsNotAnError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products/GHOST", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: "no such sku"})
	})

	client, _ := testClient(t, mux)

	p, found, err := client.GetProductBySku(context.Background(), "GHOST")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, p)
}

func TestTransientGetRetriedUntilSuccess(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products/D", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(models.Product{SKU: "D"})
	})

	client, _ := testClient(t, mux)

	_, found, err := client.GetProductBySku(context.Background(), "D")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

// POST is not idempotent at the application layer, so only 5xx (and
// network failures) may be retried; validation errors never are.
func TestPostNotRetriedOnValidationError(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: "bad sku"})
	})

	client, _ := testClient(t, mux)

	_, err := client.CreateProduct(context.Background(), &models.Product{SKU: "E"})
	require.Error(t, err)
	assert.Equal(t, ClassValidation, ClassOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Contains(t, err.Error(), "bad sku")
}

func TestPostRetriedOn5xx(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(models.Product{SKU: "F", ID: 7})
	})

	client, _ := testClient(t, mux)

	created, err := client.CreateProduct(context.Background(), &models.Product{SKU: "F"})
	require.NoError(t, err)
	assert.Equal(t, 7, created.ID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestConflictSurfacedWithoutRetry(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(models.ErrorResponse{Message: "URL key already exists"})
	})

	client, _ := testClient(t, mux)

	_, err := client.CreateProduct(context.Background(), &models.Product{SKU: "G"})
	require.Error(t, err)
	assert.Equal(t, ClassConflict, ClassOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchCriteriaEncoding(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		q := r.URL.Query()
		assert.Equal(t, "sku", q.Get("searchCriteria[filter_groups][0][filters][0][field]"))
		assert.Equal(t, "ABC", q.Get("searchCriteria[filter_groups][0][filters][0][value]"))
		assert.Equal(t, "eq", q.Get("searchCriteria[filter_groups][0][filters][0][condition_type]"))
		assert.Equal(t, "50", q.Get("searchCriteria[pageSize]"))
		json.NewEncoder(w).Encode(models.ProductList{})
	})

	client, _ := testClient(t, mux)

	sc := models.NewSearchCriteria().PageSize(50).Filter("sku", "ABC", "eq")
	_, err := client.ListProducts(context.Background(), sc)
	require.NoError(t, err)
	assert.NotEmpty(t, gotQuery)
}

func TestStoreViewPrefix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/fr/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/fr/V1/products/H", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.Product{SKU: "H"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client := NewAPI(ClientConfig{
		BaseURL:        srv.URL,
		Username:       "admin",
		Password:       "secret",
		StoreView:      "fr",
		RetryAttempts:  1,
		RetryBaseDelay: time.Millisecond,
	}, ratelimit.New(1000, 1000, 16, 0))

	_, found, err := client.GetProductBySku(context.Background(), "H")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestErrorClassMapping(t *testing.T) {
	cases := map[int]ErrorClass{
		400: ClassValidation,
		401: ClassAuthExpired,
		404: ClassNotFound,
		409: ClassConflict,
		422: ClassConflict,
		429: ClassTransient,
		500: ClassTransient,
		503: ClassTransient,
		418: ClassFatal,
	}
	for status, want := range cases {
		assert.Equal(t, want, classify(status), "status %d", status)
	}
}

func TestErrorStringOmitsCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := testClient(t, mux)

	err := client.Login(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "secret")
}

func TestUploadProductMediaReturnsID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/V1/integration/admin/token", func(w http.ResponseWriter, r *http.Request) {
		writeToken(w, "tok")
	})
	mux.HandleFunc("/rest/V1/products/I/media", func(w http.ResponseWriter, r *http.Request) {
		var req models.MediaEntryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "image/jpeg", req.Entry.Content.Type)
		assert.Equal(t, models.MainImageTypes, req.Entry.Types)
		json.NewEncoder(w).Encode(42)
	})

	client, _ := testClient(t, mux)

	id, err := client.UploadProductMedia(context.Background(), "I", &models.MediaEntry{
		MediaType: "image",
		Position:  0,
		Types:     models.MainImageTypes,
		Content: &models.MediaContent{
			Base64EncodedData: "aGVsbG8=",
			Type:              "image/jpeg",
			Name:              "i.jpg",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 42, id)
}
