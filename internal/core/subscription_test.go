package core

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

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

// paymentEnv wires the services against a mock database and an in-memory
// token ledger, with a fixed clock and a freshly generated trusted signer.
type paymentEnv struct {
	t        *testing.T
	db       *mockDB
	ledger   *token.Ledger
	services *Services
	signer   *ecdsa.PrivateKey
	now      time.Time
}

func newPaymentEnv(t *testing.T) *paymentEnv {
	t.Helper()

	signer, err := crypto.GenerateKey()
	require.NoError(t, err)

	db := &mockDB{}
	ledger := token.NewLedger()
	services := NewServices(
		db,
		token.NewLedgerGateway(ledger, testTreasury),
		eip712.NewVerifier(testDomain, crypto.PubkeyToAddress(signer.PublicKey)),
		testTreasury,
		zerolog.Nop(),
	)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	services.Subscription.now = func() time.Time { return now }

	return &paymentEnv{t: t, db: db, ledger: ledger, services: services, signer: signer, now: now}
}

func (e *paymentEnv) sign(recipient common.Address, id string, amount *uint256.Int, deadline uint64) []byte {
	e.t.Helper()
	sig, err := eip712.Sign(testDomain, e.signer, recipient, id, amount, deadline)
	require.NoError(e.t, err)
	return sig
}

func (e *paymentEnv) fund(balance, allowance *uint256.Int) {
	e.t.Helper()
	require.NoError(e.t, e.ledger.Mint(testBuyer, balance))
	e.ledger.Approve(testBuyer, testTreasury, allowance)
}

func (e *paymentEnv) expectNoDuplicate() {
	e.db.On("QueryRow", mock.Anything, sqlContains("FROM subscriptions"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
}

func (e *paymentEnv) expectConfig() {
	e.db.On("QueryRow", mock.Anything, sqlContains("FROM payment_config"), mock.Anything).
		Return(&mockRow{scanFunc: scanValues(testToken.Hex(), testOwner.Hex(), e.now)})
}

func TestCreateSubscription(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(500)
	deadline := uint64(env.now.Unix()) + 3600
	id := "plan-monthly1" // exactly at the 13-byte limit

	env.fund(uint256.NewInt(1000), uint256.NewInt(500))
	env.expectNoDuplicate()
	env.expectConfig()
	env.db.On("Exec", mock.Anything, sqlContains("INSERT INTO subscriptions"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)
	env.db.On("Exec", mock.Anything, sqlContains("INSERT INTO payment_events"), mock.Anything).
		Return(pgconn.CommandTag{}, nil)

	sub, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, env.sign(testBuyer, id, amount, deadline), id, amount, deadline)
	require.NoError(t, err)

	assert.Equal(t, id, sub.ID)
	assert.Equal(t, testBuyer, sub.Buyer)
	assert.Equal(t, amount, sub.Amount)
	assert.Equal(t, testToken, sub.Currency)
	assert.Equal(t, env.now, sub.CreatedAt)

	assert.Equal(t, uint256.NewInt(500), env.ledger.BalanceOf(testBuyer))
	assert.Equal(t, uint256.NewInt(500), env.ledger.BalanceOf(testTreasury))
	assert.True(t, env.ledger.Allowance(testBuyer, testTreasury).IsZero())

	env.db.AssertExpectations(t)
}

func TestCreateSubscription_IdentifierTooLong(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(100)
	deadline := uint64(env.now.Unix()) + 3600
	id := "plan-monthly-1" // one byte over

	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, env.sign(testBuyer, id, amount, deadline), id, amount, deadline)
	require.ErrorIs(t, err, ErrIdentifierTooLong)

	env.db.AssertNotCalled(t, "QueryRow", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateSubscription_Expired(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(100)
	env.fund(uint256.NewInt(1000), uint256.NewInt(1000))

	// A deadline equal to the current time is already expired: the clock
	// must be strictly before it.
	deadline := uint64(env.now.Unix())
	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, env.sign(testBuyer, "basic", amount, deadline), "basic", amount, deadline)
	require.ErrorIs(t, err, ErrExpired)

	assert.Equal(t, uint256.NewInt(1000), env.ledger.BalanceOf(testBuyer))
}

func TestCreateSubscription_SignatureBoundToOtherCaller(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(100)
	deadline := uint64(env.now.Unix()) + 3600

	// Authorization issued to testBuyer, replayed by a different caller.
	sig := env.sign(testBuyer, "basic", amount, deadline)
	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testOwner, sig, "basic", amount, deadline)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCreateSubscription_TamperedAmount(t *testing.T) {
	env := newPaymentEnv(t)
	deadline := uint64(env.now.Unix()) + 3600

	sig := env.sign(testBuyer, "basic", uint256.NewInt(100), deadline)
	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, sig, "basic", uint256.NewInt(50), deadline)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCreateSubscription_UntrustedSigner(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(100)
	deadline := uint64(env.now.Unix()) + 3600

	rogue, err := crypto.GenerateKey()
	require.NoError(t, err)
	sig, err := eip712.Sign(testDomain, rogue, testBuyer, "basic", amount, deadline)
	require.NoError(t, err)

	_, err = env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, sig, "basic", amount, deadline)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCreateSubscription_Duplicate(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(100)
	deadline := uint64(env.now.Unix()) + 3600
	env.fund(uint256.NewInt(1000), uint256.NewInt(1000))

	env.db.On("QueryRow", mock.Anything, sqlContains("FROM subscriptions"), mock.Anything).
		Return(&mockRow{scanFunc: scanValues(testOwner.Hex())})

	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, env.sign(testBuyer, "basic", amount, deadline), "basic", amount, deadline)
	require.ErrorIs(t, err, ErrDuplicateIdentifier)

	// Rejected before any tokens moved.
	assert.Equal(t, uint256.NewInt(1000), env.ledger.BalanceOf(testBuyer))
	assert.Equal(t, uint256.NewInt(1000), env.ledger.Allowance(testBuyer, testTreasury))
}

func TestCreateSubscription_InsufficientAllowance(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(500)
	deadline := uint64(env.now.Unix()) + 3600
	env.fund(uint256.NewInt(1000), uint256.NewInt(100))
	env.expectNoDuplicate()
	env.expectConfig()

	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, env.sign(testBuyer, "basic", amount, deadline), "basic", amount, deadline)
	require.ErrorIs(t, err, ErrTransferFailed)

	assert.Equal(t, uint256.NewInt(1000), env.ledger.BalanceOf(testBuyer))
	env.db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateSubscription_RefundOnInsertFailure(t *testing.T) {
	env := newPaymentEnv(t)
	amount := uint256.NewInt(500)
	deadline := uint64(env.now.Unix()) + 3600
	env.fund(uint256.NewInt(1000), uint256.NewInt(500))
	env.expectNoDuplicate()
	env.expectConfig()
	env.db.On("Exec", mock.Anything, sqlContains("INSERT INTO subscriptions"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection reset"))

	_, err := env.services.Subscription.CreateSubscription(
		context.Background(), testBuyer, env.sign(testBuyer, "basic", amount, deadline), "basic", amount, deadline)
	require.Error(t, err)

	// The pulled tokens went back to the buyer and no event was recorded.
	assert.Equal(t, uint256.NewInt(1000), env.ledger.BalanceOf(testBuyer))
	assert.True(t, env.ledger.BalanceOf(testTreasury).IsZero())
	env.db.AssertNumberOfCalls(t, "Exec", 1)
}

func TestGetByID(t *testing.T) {
	env := newPaymentEnv(t)
	createdAt := env.now.Add(-time.Hour)

	env.db.On("QueryRow", mock.Anything, sqlContains("FROM subscriptions"), mock.Anything).
		Return(&mockRow{scanFunc: scanValues(testBuyer.Hex(), "750", testToken.Hex(), createdAt)})

	sub, err := env.services.Subscription.GetByID(context.Background(), "basic")
	require.NoError(t, err)
	assert.Equal(t, "basic", sub.ID)
	assert.Equal(t, testBuyer, sub.Buyer)
	assert.Equal(t, uint256.NewInt(750), sub.Amount)
	assert.Equal(t, testToken, sub.Currency)
	assert.Equal(t, createdAt, sub.CreatedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	env := newPaymentEnv(t)

	env.db.On("QueryRow", mock.Anything, sqlContains("FROM subscriptions"), mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})

	_, err := env.services.Subscription.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListSubscriptions(t *testing.T) {
	env := newPaymentEnv(t)

	env.db.On("Query", mock.Anything, sqlContains("FROM subscriptions"), mock.Anything).
		Return(newMockRows(
			scanValues("pro-annual", testBuyer.Hex(), "1200", testToken.Hex(), env.now),
			scanValues("basic", testOwner.Hex(), "500", testToken.Hex(), env.now.Add(-time.Hour)),
		), nil)

	subs, err := env.services.Subscription.List(context.Background(), 50)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "pro-annual", subs[0].ID)
	assert.Equal(t, uint256.NewInt(1200), subs[0].Amount)
	assert.Equal(t, "basic", subs[1].ID)
}

func TestTokenAddress(t *testing.T) {
	env := newPaymentEnv(t)
	env.expectConfig()

	addr, err := env.services.Subscription.TokenAddress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testToken, addr)
}
