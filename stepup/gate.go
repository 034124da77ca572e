// Package stepup gates destructive admin operations behind a fresh
// one-time-code confirmation, independent of the long-lived session.
package stepup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/openjudge/judgectl/client"
	"github.com/openjudge/judgectl/session"
)

// ErrChallengePending is returned when RequestToken is called while another
// challenge is still in flight. Only one challenge may exist at a time.
var ErrChallengePending = errors.New("stepup: a challenge is already in flight")

// resendCooldown is how long resending is disabled after each send.
const resendCooldown = 60 * time.Second

var codePattern = regexp.MustCompile(`^\d{6}$`)

// State is the gate's position in its challenge lifecycle.
type State int

const (
	// StateIdle means no challenge is in flight.
	StateIdle State = iota
	// StateCodeRequested means the one-time code is being sent.
	StateCodeRequested
	// StateAwaitingInput means the interactive surface is open.
	StateAwaitingInput
)

// ActionKind classifies the operator's response to an open challenge.
type ActionKind int

const (
	// ActionCancel dismisses the challenge without confirming.
	ActionCancel ActionKind = iota
	// ActionConfirm submits the entered code.
	ActionConfirm
	// ActionResend asks for the one-time code to be sent again.
	ActionResend
)

// Action is one operator response.
type Action struct {
	Kind ActionKind
	Code string
}

// Challenge is what the interactive surface presents each round.
type Challenge struct {
	// Operation describes what is being confirmed, e.g. "revoke token 17".
	Operation string
	// MaskedEmail is where the code was sent; never the raw address.
	MaskedEmail string
	// Message is the inline error from the previous round, cleared on the
	// next input.
	Message string
	// CooldownLeft is the whole seconds until resending is allowed again.
	CooldownLeft int
}

// Prompter is the interactive confirmation surface. The CLI implements it
// on the terminal; tests script it.
type Prompter interface {
	Prompt(ctx context.Context, ch Challenge) (Action, error)
}

// Notifier surfaces non-blocking failures (code delivery, rejected codes)
// without closing the challenge.
type Notifier interface {
	Notify(message string)
}

type logNotifier struct{ logger *slog.Logger }

func (n logNotifier) Notify(message string) { n.logger.Warn(message) }

// ProfileSource yields the current user profile, for deriving the masked
// delivery address. *session.Store satisfies it.
type ProfileSource interface {
	Profile() *session.Profile
}

// Gate orchestrates one step-up challenge at a time: it triggers code
// delivery, drives the prompter until the code is confirmed or the
// challenge is dismissed, and exchanges the code for a short-lived
// sensitive-operation token.
type Gate struct {
	client   *client.Client
	profiles ProfileSource
	prompter Prompter
	notifier Notifier
	cooldown time.Duration

	mu            sync.Mutex
	state         State
	cooldownUntil time.Time
}

// Option configures the Gate.
type Option func(*Gate)

// WithNotifier replaces the default slog-backed notifier.
func WithNotifier(n Notifier) Option {
	return func(g *Gate) { g.notifier = n }
}

// WithCooldown overrides the resend cooldown. Used by tests.
func WithCooldown(d time.Duration) Option {
	return func(g *Gate) { g.cooldown = d }
}

// NewGate creates a Gate around the given client, profile source and
// interactive surface.
func NewGate(c *client.Client, profiles ProfileSource, prompter Prompter, opts ...Option) *Gate {
	g := &Gate{
		client:   c,
		profiles: profiles,
		prompter: prompter,
		cooldown: resendCooldown,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.notifier == nil {
		g.notifier = logNotifier{logger: slog.Default()}
	}
	return g
}

// State returns the gate's current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// sensitiveToken is the server's response to a successful code exchange.
type sensitiveToken struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

// RequestToken runs one complete challenge for the named operation: it
// sends the one-time code, drives the prompter until a valid code is
// confirmed or the challenge is dismissed, and returns the exchanged
// sensitive-operation token. A dismissed challenge returns ("", nil).
// Context cancellation is returned as the context's error.
//
// A second RequestToken while one is in flight fails with
// ErrChallengePending; the gate never interleaves challenges.
func (g *Gate) RequestToken(ctx context.Context, operation string) (string, error) {
	if err := g.begin(); err != nil {
		return "", err
	}
	defer g.reset()

	ch := Challenge{
		Operation:   operation,
		MaskedEmail: g.maskedEmail(),
	}

	// Initial send bypasses the cooldown check by construction; only the
	// explicit resend path consults it.
	g.sendCode(ctx)

	g.setState(StateAwaitingInput)
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		ch.CooldownLeft = g.cooldownLeft()

		action, err := g.prompter.Prompt(ctx, ch)
		if err != nil || action.Kind == ActionCancel {
			// Dismissed without confirming: not an error.
			return "", nil
		}
		ch.Message = ""

		switch action.Kind {
		case ActionResend:
			if left := g.cooldownLeft(); left > 0 {
				ch.Message = fmt.Sprintf("wait %d seconds before resending", left)
				continue
			}
			g.sendCode(ctx)

		case ActionConfirm:
			// Validated locally; a malformed code never reaches the network.
			if !codePattern.MatchString(action.Code) {
				ch.Message = "verification code must be exactly 6 digits"
				continue
			}
			token, err := g.exchange(ctx, action.Code)
			if err != nil {
				if client.IsCanceled(err) {
					return "", ctx.Err()
				}
				// Keep the challenge open for another attempt.
				g.notifier.Notify("verification failed: " + err.Error())
				continue
			}
			return token, nil
		}
	}
}

func (g *Gate) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != StateIdle {
		return ErrChallengePending
	}
	g.state = StateCodeRequested
	return nil
}

// reset is the single terminal transition: all transient state, including
// the running cooldown deadline, is dropped.
func (g *Gate) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = StateIdle
	g.cooldownUntil = time.Time{}
}

func (g *Gate) setState(st State) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.state = st
}

// sendCode triggers code delivery and arms the resend cooldown. Delivery
// failure surfaces through the notifier; the challenge stays open so the
// operator can retry or cancel.
func (g *Gate) sendCode(ctx context.Context) {
	err := g.client.Call(ctx, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/sensitive/send-code",
	}, nil)
	if err != nil && !client.IsCanceled(err) {
		g.notifier.Notify("sending verification code: " + err.Error())
	}
	g.mu.Lock()
	g.cooldownUntil = time.Now().Add(g.cooldown)
	g.mu.Unlock()
}

func (g *Gate) cooldownLeft() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	left := time.Until(g.cooldownUntil)
	if left <= 0 {
		return 0
	}
	return int(left.Round(time.Second) / time.Second)
}

func (g *Gate) exchange(ctx context.Context, code string) (string, error) {
	grant, err := client.Do[sensitiveToken](ctx, g.client, client.Request{
		Method: http.MethodPost,
		Path:   "/auth/sensitive/verify",
		Body:   map[string]string{"code": code},
	})
	if err != nil {
		return "", err
	}
	return grant.Token, nil
}

func (g *Gate) maskedEmail() string {
	if p := g.profiles.Profile(); p != nil {
		return MaskEmail(p.Email)
	}
	return ""
}

// MaskEmail hides the local part of an address, keeping its first and last
// characters: "judge@host" becomes "j***e@host".
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local[:1] + "***" + domain
	}
	return local[:1] + "***" + local[len(local)-1:] + domain
}
