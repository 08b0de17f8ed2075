package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/code-solana-sdk/pkg/rate"
	"github.com/code-payments/code-solana-sdk/pkg/retry"
	"github.com/code-payments/code-solana-sdk/pkg/retry/backoff"
)

const (
	// todo: we can retrieve these from the Syscall account
	//       but they're unlikely to change.
	ticksPerSec  = 160
	ticksPerSlot = 64
	slotsPerSec  = ticksPerSec / ticksPerSlot

	// PollRate is the rate at which blocks should be polled at.
	PollRate = (time.Second / slotsPerSec) / 2

	// Poll rate is ~2x the slot rate, and we want to wait ~32 slots
	sigStatusPollLimit = 2 * 32

	// Reference: https://github.com/solana-labs/solana/blob/71e9958e061493d7545bd28d4ac7a85aaed6ffbb/client/src/rpc_custom_error.rs#L11
	rpcNodeUnhealthyCode = -32005

	invalidParamCode = -32602

	blockhashTTL = 2 * time.Second
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

const (
	confirmationStatusProcessed = "processed"
	confirmationStatusConfirmed = "confirmed"
	confirmationStatusFinalized = "finalized"
)

var (
	CommitmentProcessed = Commitment{Commitment: confirmationStatusProcessed}
	CommitmentConfirmed = Commitment{Commitment: confirmationStatusConfirmed}
	CommitmentFinalized = Commitment{Commitment: confirmationStatusFinalized}
)

// ParseCommitment maps a commitment level name onto a Commitment.
func ParseCommitment(s string) (Commitment, error) {
	switch s {
	case confirmationStatusProcessed:
		return CommitmentProcessed, nil
	case confirmationStatusConfirmed:
		return CommitmentConfirmed, nil
	case confirmationStatusFinalized, "":
		return CommitmentFinalized, nil
	default:
		return Commitment{}, errors.Errorf("unknown commitment %q", s)
	}
}

var (
	ErrNoAccountInfo       = errors.New("no account info")
	ErrSignatureNotFound   = errors.New("signature not found")
	ErrNoBalance           = errors.New("no balance")
	ErrUnsignedTransaction = errors.New("transaction has no signatures")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      PublicKey
	Lamports   uint64
	Executable bool
	RentEpoch  uint64
}

type SignatureStatus struct {
	Slot        uint64
	ErrorResult *TransactionError

	// Confirmations will be nil if the transaction has been rooted.
	Confirmations      *int
	ConfirmationStatus string
}

func (s SignatureStatus) Confirmed() bool {
	if s.Finalized() {
		return true
	}

	if s.ConfirmationStatus == confirmationStatusConfirmed {
		return true
	}

	return *s.Confirmations >= 1
}

func (s SignatureStatus) Finalized() bool {
	return s.Confirmations == nil || s.ConfirmationStatus == confirmationStatusFinalized
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(context.Context, PublicKey, Commitment) (AccountInfo, error)
	GetBalance(context.Context, PublicKey, Commitment) (uint64, error)
	GetLatestBlockhash(context.Context) (Blockhash, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64) (lamports uint64, err error)
	GetSignatureStatus(context.Context, Signature, Commitment) (*SignatureStatus, error)
	GetSignatureStatuses(context.Context, []Signature) ([]*SignatureStatus, error)
	GetSlot(context.Context, Commitment) (uint64, error)
	RequestAirdrop(context.Context, PublicKey, uint64, Commitment) (Signature, error)
	SubmitTransaction(context.Context, Transaction, Commitment) (Signature, error)
}

var (
	ErrRateLimited  = errors.New("rate limited")
	ErrServiceError = errors.New("service error")
)

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value json.RawMessage `json:"value"`
}

// ClientOption configures a Client.
type ClientOption func(*client)

// WithLogger overrides the client's log entry.
func WithLogger(log *logrus.Entry) ClientOption {
	return func(c *client) {
		c.log = log
	}
}

// WithLimiter rate limits outgoing requests, keyed by RPC method.
func WithLimiter(l rate.Limiter) ClientOption {
	return func(c *client) {
		c.limiter = l
	}
}

// WithRetrier overrides the strategy used to retry rate limited and failed
// requests.
func WithRetrier(r retry.Retrier) ClientOption {
	return func(c *client) {
		c.retrier = r
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *client) {
		c.rpcOpts.HTTPClient = h
	}
}

// WithHeaders adds custom headers, such as API keys, to every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *client) {
		c.rpcOpts.CustomHeaders = headers
	}
}

// WithPollRate sets how often GetSignatureStatus polls.
func WithPollRate(d time.Duration) ClientOption {
	return func(c *client) {
		c.pollRate = d
	}
}

type client struct {
	log      *logrus.Entry
	rpcOpts  *jsonrpc.RPCClientOpts
	client   jsonrpc.RPCClient
	retrier  retry.Retrier
	limiter  rate.Limiter
	pollRate time.Duration

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string, opts ...ClientOption) Client {
	c := &client{
		log:     logrus.StandardLogger().WithField("type", "solana/client"),
		rpcOpts: &jsonrpc.RPCClientOpts{},
		retrier: retry.NewRetrier(
			retry.RetriableErrors(ErrRateLimited, ErrServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
		limiter:  &rate.NoLimiter{},
		pollRate: PollRate,
	}
	for _, o := range opts {
		o(c)
	}

	c.client = jsonrpc.NewClientWithOpts(endpoint, c.rpcOpts)
	return c
}

func (c *client) call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx, method); err != nil {
			return err
		}

		err := c.client.CallFor(out, method, params...)
		if err == nil {
			return nil
		}

		return c.handleRpcError(method, err)
	})

	return err
}

func (c *client) handleRpcError(method string, err error) error {
	switch e := err.(type) {
	case *jsonrpc.RPCError:
		if e.Code == http.StatusTooManyRequests {
			c.log.WithField("method", method).Warn("rate limited")
			return ErrRateLimited
		}
		if e.Code >= 500 || e.Code == rpcNodeUnhealthyCode {
			return ErrServiceError
		}
	case *jsonrpc.HTTPError:
		if e.Code == http.StatusTooManyRequests {
			c.log.WithField("method", method).Warn("rate limited")
			return ErrRateLimited
		}
		if e.Code >= 500 {
			return ErrServiceError
		}
	}

	return err
}

func (c *client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (lamports uint64, err error) {
	if err := c.call(ctx, &lamports, "getMinimumBalanceForRentExemption", dataSize); err != nil {
		return 0, errors.Wrapf(err, "getMinimumBalanceForRentExemption() failed to send request")
	}

	return lamports, nil
}

func (c *client) GetSlot(ctx context.Context, commitment Commitment) (slot uint64, err error) {
	// note: we have to wrap the commitment in an []interface{} otherwise the
	//       solana RPC node complains. Technically this is a violation of the
	//       JSON RPC v2.0 spec.
	if err := c.call(ctx, &slot, "getSlot", []interface{}{commitment}); err != nil {
		return 0, errors.Wrapf(err, "getSlot() failed to send request")
	}

	return slot, nil
}

func (c *client) GetLatestBlockhash(ctx context.Context) (hash Blockhash, err error) {
	// To avoid having thrashing around a similar periodic interval, we
	// randomize when we refresh our block hash.
	window := time.Duration(float64(blockhashTTL) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	var resp struct {
		Value struct {
			Blockhash Blockhash `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(ctx, &resp, "getLatestBlockhash"); err != nil {
		return hash, errors.Wrapf(err, "getLatestBlockhash() failed to send request")
	}
	hash = resp.Value.Blockhash

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	c.log.WithField("blockhash", hash.String()).Debug("refreshed blockhash")
	return hash, nil
}

func (c *client) GetBalance(ctx context.Context, account PublicKey, commitment Commitment) (uint64, error) {
	var resp rpcResponse
	if err := c.call(ctx, &resp, "getBalance", account.String(), commitment); err != nil {
		jsonRPCErr, ok := errors.Cause(err).(*jsonrpc.RPCError)
		if ok && jsonRPCErr.Code == invalidParamCode {
			return 0, ErrNoBalance
		}

		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	var balance uint64
	if err := json.Unmarshal(resp.Value, &balance); err != nil {
		return 0, errors.Wrap(err, "invalid value in response")
	}

	return balance, nil
}

func (c *client) SubmitTransaction(ctx context.Context, txn Transaction, commitment Commitment) (Signature, error) {
	if len(txn.Signatures) == 0 {
		return Signature{}, ErrUnsignedTransaction
	}

	sig := txn.Signature()
	config := struct {
		Encoding            string `json:"encoding"`
		SkipPreflight       bool   `json:"skipPreflight"`
		PreflightCommitment string `json:"preflightCommitment"`
	}{
		Encoding:            "base64",
		SkipPreflight:       true,
		PreflightCommitment: commitment.Commitment,
	}

	var returned Signature
	err := c.call(ctx, &returned, "sendTransaction", base64.StdEncoding.EncodeToString(txn.Marshal()), config)
	if err != nil {
		jsonRPCErr, ok := errors.Cause(err).(*jsonrpc.RPCError)
		if !ok {
			return sig, errors.Wrapf(err, "sendTransaction() failed to send request")
		}

		txErr, parseErr := ParseRPCError(jsonRPCErr)
		if parseErr != nil || txErr == nil {
			return sig, err
		}

		c.log.WithFields(logrus.Fields{
			"signature": sig.String(),
			"error":     txErr.Error(),
		}).Debug("transaction rejected")
		return sig, txErr
	}

	if returned != sig {
		c.log.WithFields(logrus.Fields{
			"expected": sig.String(),
			"returned": returned.String(),
		}).Warn("rpc returned an unexpected signature")
	}

	return sig, nil
}

func (c *client) GetAccountInfo(ctx context.Context, account PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64    `json:"lamports"`
			Owner      PublicKey `json:"owner"`
			Data       []string  `json:"data"`
			Executable bool      `json:"executable"`
			RentEpoch  uint64    `json:"rentEpoch"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment string `json:"commitment"`
		Encoding   string `json:"encoding"`
	}{
		Commitment: commitment.Commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(ctx, &resp, "getAccountInfo", account.String(), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}
	if len(resp.Value.Data) == 0 {
		return accountInfo, errors.New("missing account data in response")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Owner = resp.Value.Owner
	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable
	accountInfo.RentEpoch = resp.Value.RentEpoch

	return accountInfo, nil
}

func (c *client) RequestAirdrop(ctx context.Context, account PublicKey, lamports uint64, commitment Commitment) (Signature, error) {
	var sig Signature
	if err := c.call(ctx, &sig, "requestAirdrop", account.String(), lamports, commitment); err != nil {
		return Signature{}, errors.Wrapf(err, "requestAirdrop() failed to send request")
	}

	if sig.IsZero() {
		return Signature{}, errors.New("empty signature returned")
	}

	return sig, nil
}

// GetSignatureStatus polls until the transaction reaches the requested
// commitment, fails, or the poll limit is reached.
func (c *client) GetSignatureStatus(ctx context.Context, sig Signature, commitment Commitment) (*SignatureStatus, error) {
	var s *SignatureStatus
	errConfirmationsNotReached := errors.New("confirmations not reached")
	_, err := retry.Retry(
		ctx,
		func(ctx context.Context) error {
			statuses, err := c.GetSignatureStatuses(ctx, []Signature{sig})
			if err != nil {
				return err
			}

			s = statuses[0]
			if s == nil {
				return ErrSignatureNotFound
			}

			if s.ErrorResult != nil {
				return nil
			}

			switch commitment {
			case CommitmentProcessed:
				return nil
			case CommitmentConfirmed:
				if s.Confirmed() {
					return nil
				}
			case CommitmentFinalized:
				if s.Finalized() {
					return nil
				}
			}

			return errConfirmationsNotReached
		},
		retry.RetriableErrors(ErrSignatureNotFound, errConfirmationsNotReached),
		retry.Limit(sigStatusPollLimit),
		retry.Backoff(backoff.Constant(c.pollRate), c.pollRate),
	)

	return s, err
}

func (c *client) GetSignatureStatuses(ctx context.Context, sigs []Signature) ([]*SignatureStatus, error) {
	b58Sigs := make([]string, len(sigs))
	for i := range sigs {
		b58Sigs[i] = sigs[i].String()
	}

	req := struct {
		SearchTransactionHistory bool `json:"searchTransactionHistory"`
	}{
		SearchTransactionHistory: true,
	}

	type signatureStatus struct {
		Slot               uint64          `json:"slot"`
		Confirmations      *int            `json:"confirmations"`
		ConfirmationStatus string          `json:"confirmationStatus"`
		Err                json.RawMessage `json:"err"`
	}

	var resp struct {
		Value []*signatureStatus `json:"value"`
	}
	if err := c.call(ctx, &resp, "getSignatureStatuses", b58Sigs, req); err != nil {
		return nil, errors.Wrap(err, "getSignatureStatuses() failed to send request")
	}
	if len(resp.Value) > len(sigs) {
		return nil, errors.Errorf("expected at most %d statuses, got %d", len(sigs), len(resp.Value))
	}

	statuses := make([]*SignatureStatus, len(sigs))
	for i, v := range resp.Value {
		if v == nil {
			continue
		}

		txErr, err := ParseTransactionError(v.Err)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse transaction result")
		}

		statuses[i] = &SignatureStatus{
			Slot:               v.Slot,
			ErrorResult:        txErr,
			Confirmations:      v.Confirmations,
			ConfirmationStatus: v.ConfirmationStatus,
		}
	}

	return statuses, nil
}
