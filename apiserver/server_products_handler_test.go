package apiserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	"code.cloudfoundry.org/lager"

	"github.com/metermill/rateplan-console/apiserver/auth"
	"github.com/metermill/rateplan-console/rateplanio"

	. "github.com/metermill/rateplan-console/apiserver"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const (
	adminToken  = "ADMIN_TOKEN"
	readerToken = "READER_TOKEN"
)

func newTestConfig(store *fakeStore) Config {
	return Config{
		Authenticator: &auth.SimpleAuthenticator{
			Tokens: map[string]bool{
				adminToken:  true,
				readerToken: false,
			},
		},
		Logger:      lager.NewLogger("test"),
		Store:       store,
		EnablePanic: true,
	}
}

func doRequest(cfg Config, method, path, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "bearer "+token)
	}
	res := httptest.NewRecorder()
	e := New(cfg)
	e.ServeHTTP(res, req)
	defer e.Shutdown(context.Background())
	return res
}

var _ = Describe("product handlers", func() {

	var store *fakeStore

	BeforeEach(func() {
		store = &fakeStore{}
	})

	It("lists products as json", func() {
		store.listProducts = func(ctx context.Context) ([]rateplanio.Product, error) {
			return []rateplanio.Product{
				{GUID: "p-1", Name: "API calls", Description: "metered API"},
			}, nil
		}
		res := doRequest(newTestConfig(store), http.MethodGet, "/products", readerToken, "")
		Expect(res.Code).To(Equal(http.StatusOK))
		Expect(res.Body).To(MatchJSON(`[
			{
				"product_guid": "p-1",
				"name": "API calls",
				"description": "metered API",
				"created_at": ""
			}
		]`))
	})

	It("creates a product for an admin", func() {
		var got rateplanio.Product
		store.createProduct = func(ctx context.Context, p rateplanio.Product) (rateplanio.Product, error) {
			got = p
			p.GUID = "p-2"
			return p, nil
		}
		res := doRequest(newTestConfig(store), http.MethodPost, "/products", adminToken,
			`{"name": "Storage", "description": "GB-months"}`)
		Expect(res.Code).To(Equal(http.StatusCreated))
		Expect(got.Name).To(Equal("Storage"))

		var created rateplanio.Product
		Expect(json.Unmarshal(res.Body.Bytes(), &created)).To(Succeed())
		Expect(created.GUID).To(Equal("p-2"))
	})

	It("rejects a create with no name", func() {
		res := doRequest(newTestConfig(store), http.MethodPost, "/products", adminToken,
			`{"description": "nameless"}`)
		Expect(res.Code).To(Equal(http.StatusBadRequest))
	})

	It("returns 404 for an unknown product", func() {
		store.getProduct = func(ctx context.Context, guid string) (rateplanio.Product, error) {
			return rateplanio.Product{}, rateplanio.ErrNotFound
		}
		res := doRequest(newTestConfig(store), http.MethodGet, "/products/missing", readerToken, "")
		Expect(res.Code).To(Equal(http.StatusNotFound))
	})

	It("refuses requests with no token", func() {
		res := doRequest(newTestConfig(store), http.MethodGet, "/products", "", "")
		Expect(res.Code).To(Equal(http.StatusUnauthorized))
	})

	It("refuses writes from a read-only token", func() {
		res := doRequest(newTestConfig(store), http.MethodPost, "/products", readerToken,
			`{"name": "Storage"}`)
		Expect(res.Code).To(Equal(http.StatusForbidden))
	})

	It("deletes a product", func() {
		deleted := ""
		store.deleteProduct = func(ctx context.Context, guid string) error {
			deleted = guid
			return nil
		}
		res := doRequest(newTestConfig(store), http.MethodDelete, "/products/p-1", adminToken, "")
		Expect(res.Code).To(Equal(http.StatusNoContent))
		Expect(deleted).To(Equal("p-1"))
	})
})
