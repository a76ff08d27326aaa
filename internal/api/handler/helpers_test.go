package handler

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/edvin/subpay/internal/api/middleware"
	"github.com/edvin/subpay/internal/core"
	"github.com/edvin/subpay/internal/eip712"
	"github.com/edvin/subpay/internal/token"
)

var (
	testDomain = eip712.Domain{
		Name:              "SubPay",
		Version:           "1",
		ChainID:           31337,
		VerifyingContract: common.HexToAddress("0x00000000000000000000000000000000000000cc"),
	}
	testTreasury = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testToken    = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	testBuyer    = common.HexToAddress("0x0000000000000000000000000000000000000001")
	testOwner    = common.HexToAddress("0x0000000000000000000000000000000000000002")
)

// handlerEnv serves the API routes over real services backed by a mock
// database and an in-memory ledger. The identity middleware is replaced by
// one that injects env.identity, so tests choose who the caller is.
type handlerEnv struct {
	t        *testing.T
	db       *mockDB
	ledger   *token.Ledger
	services *core.Services
	signer   *ecdsa.PrivateKey
	identity *middleware.APIKeyIdentity
	router   chi.Router
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	signer, err := crypto.GenerateKey()
	require.NoError(t, err)

	db := &mockDB{}
	ledger := token.NewLedger()
	services := core.NewServices(
		db,
		token.NewLedgerGateway(ledger, testTreasury),
		eip712.NewVerifier(testDomain, crypto.PubkeyToAddress(signer.PublicKey)),
		testTreasury,
		zerolog.Nop(),
	)

	env := &handlerEnv{
		t:        t,
		db:       db,
		ledger:   ledger,
		services: services,
		signer:   signer,
		identity: &middleware.APIKeyIdentity{ID: "key-1", Name: "test", Address: testBuyer},
	}

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), env.identity)))
		})
	})

	subscription := NewSubscription(services)
	router.Get("/subscriptions", subscription.List)
	router.Post("/subscriptions", subscription.Create)
	router.Get("/subscriptions/{id}", subscription.Get)

	tok := NewToken(services)
	router.Get("/token", tok.Get)

	admin := NewAdmin(services)
	router.Post("/admin/withdraw", admin.Withdraw)
	router.Put("/admin/token", admin.SetToken)
	router.Post("/admin/owner", admin.TransferOwnership)

	env.router = router
	return env
}

func (e *handlerEnv) as(addr common.Address) {
	e.identity.Address = addr
}

func (e *handlerEnv) do(method, path string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *handlerEnv) sign(recipient common.Address, id string, amount *uint256.Int, deadline uint64) string {
	e.t.Helper()
	sig, err := eip712.Sign(testDomain, e.signer, recipient, id, amount, deadline)
	require.NoError(e.t, err)
	return hexutil.Encode(sig)
}

func futureDeadline() uint64 {
	return uint64(time.Now().Add(time.Hour).Unix())
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
