package checkout

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/angelmondragon/cellar-backend/pkg/config"
	pkgstripe "github.com/angelmondragon/cellar-backend/pkg/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stripeStub struct {
	mu          sync.Mutex
	createForm  url.Values
	createCalls int
	failCreate  bool
}

func (s *stripeStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.createCalls++
		if err := r.ParseForm(); err == nil {
			s.createForm = r.PostForm
		}
		w.Header().Set("Content-Type", "application/json")
		if s.failCreate {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"type":"api_error","message":"boom"}}`)
			return
		}
		fmt.Fprint(w, `{"id":"cs_test_a","object":"checkout.session","client_secret":"cs_test_a_secret","status":"open","payment_status":"unpaid","metadata":{"order_id":"o-1","cart_id":"c-1"}}`)
	})
	mux.HandleFunc("/v1/checkout/sessions/cs_test_a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"cs_test_a","object":"checkout.session","status":"complete","payment_status":"paid","metadata":{"order_id":"o-1","cart_id":"c-1"}}`)
	})
	return mux
}

func newStubbedProvider(t *testing.T) (PaymentProvider, *stripeStub) {
	t.Helper()
	stub := &stripeStub{}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	client, err := pkgstripe.NewClient(context.Background(), config.StripeConfig{
		APIKey: "sk_test_123",
		Secret: "whsec_abc",
		APIURL: srv.URL,
	}, nil)
	require.NoError(t, err)

	provider, err := NewStripeProvider(client)
	require.NoError(t, err)
	return provider, stub
}

func TestStripeProviderCreatesEmbeddedSession(t *testing.T) {
	provider, stub := newStubbedProvider(t)

	sess, err := provider.CreateSession(context.Background(), SessionRequest{
		Lines: []ManifestLine{
			{Name: "Test Estate Grenache", Quantity: 2, UnitAmountCents: 1995},
			{Name: "Shipping", Quantity: 1, UnitAmountCents: 500},
		},
		Metadata:  map[string]string{MetadataOrderID: "o-1", MetadataCartID: "c-1"},
		ReturnURL: "https://shop.example.com/checkout/return?session_id=" + SessionIDPlaceholder,
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_a", sess.ID)
	assert.Equal(t, "cs_test_a_secret", sess.ClientSecret)
	assert.False(t, sess.Complete())

	form := stub.createForm
	assert.Equal(t, "payment", form.Get("mode"))
	assert.Equal(t, "embedded", form.Get("ui_mode"))
	assert.Equal(t, "2", form.Get("line_items[0][quantity]"))
	assert.Equal(t, "1995", form.Get("line_items[0][price_data][unit_amount]"))
	assert.Equal(t, "usd", form.Get("line_items[0][price_data][currency]"))
	assert.Equal(t, "Test Estate Grenache", form.Get("line_items[0][price_data][product_data][name]"))
	assert.Equal(t, "500", form.Get("line_items[1][price_data][unit_amount]"))
	assert.Equal(t, "o-1", form.Get("metadata[order_id]"))
	assert.Equal(t, "c-1", form.Get("metadata[cart_id]"))
}

func TestStripeProviderRetrievesSession(t *testing.T) {
	provider, _ := newStubbedProvider(t)

	sess, err := provider.GetSession(context.Background(), "cs_test_a")
	require.NoError(t, err)
	assert.True(t, sess.Complete())
	assert.True(t, sess.Paid())
	assert.Equal(t, "o-1", sess.Metadata[MetadataOrderID])
}

func TestStripeProviderDoesNotRetryFailures(t *testing.T) {
	provider, stub := newStubbedProvider(t)
	stub.failCreate = true

	_, err := provider.CreateSession(context.Background(), SessionRequest{
		Lines:     []ManifestLine{{Name: "Wine", Quantity: 1, UnitAmountCents: 1000}},
		ReturnURL: "https://shop.example.com/checkout/return",
	})
	require.Error(t, err)
	assert.Equal(t, 1, stub.createCalls)
}

func TestNewStripeProviderRequiresClient(t *testing.T) {
	_, err := NewStripeProvider(nil)
	assert.Error(t, err)
}
