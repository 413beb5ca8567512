package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const LocalSignatureHeader = "X-Payment-Signature"

type LocalConfig struct {
	Secret      string
	CheckoutURL string
	Tolerance   time.Duration
}

// Local is a self-hosted provider: sessions point at a configurable checkout
// page, and outcomes arrive as JSON signed with a shared secret using the
// same "t=<unix>,v1=<hex hmac>" scheme Stripe uses.
type Local struct {
	secret      []byte
	checkoutURL string
	tolerance   time.Duration
	now         func() time.Time
}

type LocalEvent struct {
	EventID     string  `json:"event_id"`
	SessionID   string  `json:"session_id"`
	Reference   string  `json:"reference"`
	Outcome     Outcome `json:"outcome"`
	AmountCents int64   `json:"amount_cents"`
	Currency    string  `json:"currency"`
}

func NewLocal(cfg LocalConfig) *Local {
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = 5 * time.Minute
	}

	return &Local{
		secret:      []byte(cfg.Secret),
		checkoutURL: cfg.CheckoutURL,
		tolerance:   cfg.Tolerance,
		now:         time.Now,
	}
}

func (l *Local) Name() string { return "local" }

func (l *Local) SignatureHeader() string { return LocalSignatureHeader }

func (l *Local) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	const op = "payment.Local.CreateSession"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	id := "loc_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	redirect := ""
	if l.checkoutURL != "" {
		u, err := url.Parse(l.checkoutURL)
		if err != nil {
			return nil, fmt.Errorf("%s:%w", op, err)
		}

		q := u.Query()
		q.Set("session_id", id)
		q.Set("reference", req.Reference)
		q.Set("amount", strconv.FormatInt(req.AmountCents, 10))
		q.Set("currency", req.Currency)
		u.RawQuery = q.Encode()
		redirect = u.String()
	}

	return &Session{ID: id, RedirectURL: redirect}, nil
}

func (l *Local) ParseNotification(payload []byte, signatureHeader string) (*Notification, error) {
	const op = "payment.Local.ParseNotification"

	if err := l.verify(payload, signatureHeader); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	var ev LocalEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("%s: %v:%w", op, err, ErrMalformedPayload)
	}

	switch ev.Outcome {
	case OutcomeSucceeded, OutcomeFailed, OutcomeCancelled:
	default:
		return nil, fmt.Errorf("%s: outcome %q:%w", op, ev.Outcome, ErrMalformedPayload)
	}

	if ev.SessionID == "" && ev.Reference == "" {
		return nil, fmt.Errorf("%s: missing session:%w", op, ErrMalformedPayload)
	}

	return &Notification{
		EventID:     ev.EventID,
		SessionID:   ev.SessionID,
		Reference:   ev.Reference,
		Outcome:     ev.Outcome,
		AmountCents: ev.AmountCents,
		Currency:    ev.Currency,
	}, nil
}

func (l *Local) verify(payload []byte, header string) error {
	var (
		ts   int64
		sigs [][]byte
	)

	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrInvalidSignature
			}
			ts = n
		case "v1":
			b, err := hex.DecodeString(v)
			if err == nil {
				sigs = append(sigs, b)
			}
		}
	}

	if ts == 0 || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	age := l.now().Sub(time.Unix(ts, 0))
	if age > l.tolerance || age < -l.tolerance {
		return fmt.Errorf("timestamp outside tolerance:%w", ErrInvalidSignature)
	}

	expected := computeSignature(l.secret, ts, payload)
	for _, sig := range sigs {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Sign produces the signature header value for payload at time t.
func Sign(secret string, payload []byte, t time.Time) string {
	ts := t.Unix()
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(computeSignature([]byte(secret), ts, payload)))
}

func computeSignature(secret []byte, ts int64, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return mac.Sum(nil)
}
