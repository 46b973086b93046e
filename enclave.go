package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
)

// signDataOperation names the signing operation inside idempotency scopes.
const signDataOperation = "sign-data"

// Enclave orchestrates the authenticated signing flow:
// authenticate, idempotency lookup, policy decision, adapter signing,
// idempotency append, respond. Durable state is loaded per request; nothing
// mutable is shared between requests beyond the store itself.
type Enclave struct {
	auth     *AuthManager
	store    EnclaveStore
	adapters *ChainAdapters
	envelope *EnvelopeService
	locks    *ScopeLock
	metrics  *Metrics
	logger   Logger
	validate *validator.Validate

	now func() time.Time

	// signInvoked fires once per adapter invocation. Tests use it to assert
	// that replayed requests never reach the adapter.
	signInvoked func(chain string)
}

func NewEnclave(auth *AuthManager, store EnclaveStore, adapters *ChainAdapters, envelope *EnvelopeService, metrics *Metrics, logger Logger) *Enclave {
	return &Enclave{
		auth:     auth,
		store:    store,
		adapters: adapters,
		envelope: envelope,
		locks:    NewScopeLock(),
		metrics:  metrics,
		logger:   logger.NewSystem("enclave"),
		validate: validator.New(),
		now:      time.Now,
	}
}

// SignData runs the full request state machine for a signing intent and
// returns the serialized response body. Replayed intents with a previously
// completed (scope, idempotencyKey) return the stored response byte-identical,
// without re-evaluating policy or re-invoking the adapter.
func (e *Enclave) SignData(ctx context.Context, bearer string, intent SigningIntent) (json.RawMessage, error) {
	principal, err := e.auth.Authenticate(bearer)
	if err != nil {
		e.metrics.AuthFailures.Inc()
		return nil, err
	}

	if err := e.validate.Struct(intent); err != nil {
		return nil, NewBadRequestError("invalid signing intent: " + err.Error())
	}

	// Fail closed before any signing work when the enclave is disabled or
	// holds no master secret.
	if err := e.envelope.available(); err != nil {
		return nil, err
	}

	e.metrics.SignRequests.WithLabelValues(intent.Chain).Inc()
	logger := e.logger.With("principal", principal).With("keyRef", intent.KeyRef).With("chain", intent.Chain)

	scope := signDataOperation + ":" + principal

	if intent.IdempotencyKey != "" {
		// Duplicate requests sharing (scope, key) are serialized so at most
		// one of them reaches the adapter.
		release := e.locks.Acquire(scope, intent.IdempotencyKey)
		defer release()

		record, err := e.store.LookupRecord(ctx, scope, intent.IdempotencyKey)
		if err != nil {
			return nil, AsEnclaveError(err)
		}
		if record != nil {
			// Replay: the cached response is returned as stored. This
			// intentionally bypasses a fresh policy evaluation; a
			// previously-authorized operation is not re-judged against a
			// policy that may have changed since.
			e.metrics.IdempotencyHits.Inc()
			logger.Info("idempotent replay served from store", "idempotencyKey", intent.IdempotencyKey)
			return record.Response, nil
		}
	}

	policy, err := e.store.LoadPolicy(ctx)
	if err != nil {
		return nil, AsEnclaveError(err)
	}
	if decision := Decide(policy, intent.KeyRef); !decision.Allowed {
		e.metrics.PolicyDenials.WithLabelValues(string(decision.Code)).Inc()
		logger.Warn("signing intent denied by policy", "code", decision.Code)
		return nil, NewPolicyError(decision.Code, decision.Message)
	}

	if e.signInvoked != nil {
		e.signInvoked(intent.Chain)
	}
	result, err := e.adapters.SignData(intent)
	if err != nil {
		e.metrics.SignFailures.WithLabelValues(intent.Chain).Inc()
		return nil, AsEnclaveError(err)
	}

	response, err := json.Marshal(result)
	if err != nil {
		return nil, AsEnclaveError(err)
	}

	// Persist before replying so a crash between signing and responding still
	// lets a client retry observe the completed result instead of re-signing.
	if intent.IdempotencyKey != "" {
		record := IdempotencyRecord{
			Key:       intent.IdempotencyKey,
			Scope:     scope,
			CreatedAt: e.now().UTC(),
			Response:  response,
		}
		if err := e.store.AppendRecord(ctx, record); err != nil {
			return nil, AsEnclaveError(err)
		}
	}

	e.metrics.SignSuccesses.WithLabelValues(intent.Chain).Inc()
	logger.Info("signing intent completed", "address", result.Address, "alg", result.Alg)
	return response, nil
}

// EncryptRequest asks the enclave to seal an opaque secret blob under a
// caller-chosen context. The caller persists the envelope itself.
type EncryptRequest struct {
	Context      string `json:"context" validate:"required"`
	PlaintextB64 string `json:"plaintext" validate:"required"`
}

// DecryptRequest asks the enclave to open a previously sealed envelope.
type DecryptRequest struct {
	Context       string `json:"context" validate:"required"`
	CiphertextB64 string `json:"ciphertextB64" validate:"required"`
	NonceB64      string `json:"nonceB64" validate:"required"`
}

// DecryptResult carries the recovered plaintext.
type DecryptResult struct {
	PlaintextB64 string `json:"plaintext"`
}

// EncryptBlob authenticates the caller and seals a secret blob. Context
// binding means the resulting envelope only ever opens under the same context.
func (e *Enclave) EncryptBlob(bearer string, req EncryptRequest) (Envelope, error) {
	if _, err := e.auth.Authenticate(bearer); err != nil {
		e.metrics.AuthFailures.Inc()
		return Envelope{}, err
	}
	if err := e.validate.Struct(req); err != nil {
		return Envelope{}, NewBadRequestError("invalid encrypt request: " + err.Error())
	}
	plaintext, err := base64.StdEncoding.DecodeString(req.PlaintextB64)
	if err != nil {
		return Envelope{}, NewBadRequestError("plaintext is not valid base64")
	}
	env, err := e.envelope.Encrypt(req.Context, plaintext)
	if err != nil {
		return Envelope{}, AsEnclaveError(err)
	}
	e.metrics.EnvelopeOps.WithLabelValues("encrypt").Inc()
	return env, nil
}

// DecryptBlob authenticates the caller and opens a sealed envelope.
func (e *Enclave) DecryptBlob(bearer string, req DecryptRequest) (DecryptResult, error) {
	if _, err := e.auth.Authenticate(bearer); err != nil {
		e.metrics.AuthFailures.Inc()
		return DecryptResult{}, err
	}
	if err := e.validate.Struct(req); err != nil {
		return DecryptResult{}, NewBadRequestError("invalid decrypt request: " + err.Error())
	}
	plaintext, err := e.envelope.DecryptEnvelope(req.Context, Envelope{
		CiphertextB64: req.CiphertextB64,
		NonceB64:      req.NonceB64,
	})
	if err != nil {
		return DecryptResult{}, AsEnclaveError(err)
	}
	e.metrics.EnvelopeOps.WithLabelValues("decrypt").Inc()
	return DecryptResult{PlaintextB64: base64.StdEncoding.EncodeToString(plaintext)}, nil
}

// AuditRecords returns the full append-only signing history.
func (e *Enclave) AuditRecords(ctx context.Context) ([]IdempotencyRecord, error) {
	return e.store.ScanRecords(ctx)
}
