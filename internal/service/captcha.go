package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	apperrors "github.com/onelink/captcha-server-go/internal/errors"
	"github.com/onelink/captcha-server-go/internal/metrics"
	"github.com/onelink/captcha-server-go/internal/model"
	"github.com/onelink/captcha-server-go/internal/render"
	"github.com/onelink/captcha-server-go/internal/store"
)

// Challenge operands are drawn from 2..9 inclusive.
const (
	operandMin = 2
	operandMax = 9
)

// CaptchaService owns the session and challenge lifecycle. All state lives
// in the session table; expiry is enforced lazily, at access time, by every
// operation.
type CaptchaService struct {
	table      *store.Table
	renderer   render.Renderer
	sessionTTL time.Duration
	captchaTTL time.Duration
	now        func() time.Time
}

func NewCaptchaService(
	table *store.Table,
	renderer render.Renderer,
	sessionTTL, captchaTTL time.Duration,
) *CaptchaService {
	return &CaptchaService{
		table:      table,
		renderer:   renderer,
		sessionTTL: sessionTTL,
		captchaTTL: captchaTTL,
		now:        time.Now,
	}
}

// CreateSession generates a fresh session id and stores an unverified record
// with no outstanding challenge. It has no failure modes beyond the
// defensive duplicate-id check in the table.
func (s *CaptchaService) CreateSession(ctx context.Context) (string, error) {
	now := s.now()
	sess := &model.Session{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}

	if err := s.table.Put(sess); err != nil {
		return "", err
	}

	metrics.SessionsCreated.Inc()
	log.Info().
		Str("sessionId", sess.ID).
		Time("expiresAt", sess.ExpiresAt).
		Msg("session created")

	return sess.ID, nil
}

// GenerateChallenge issues (or re-issues) a math challenge on the session,
// discarding any previous outstanding challenge. The renderer runs outside
// any table lock; only the final field update is atomic.
//
// A verified session may still receive a new challenge; the verified flag is
// never touched here.
func (s *CaptchaService) GenerateChallenge(ctx context.Context, id string) ([]byte, error) {
	now := s.now()
	sess, ok := s.table.Get(id)
	if !ok {
		return nil, apperrors.SessionNotFound()
	}
	if sess.Expired(now) {
		s.table.Delete(id)
		return nil, apperrors.SessionExpired()
	}

	a := operandMin + rand.Intn(operandMax-operandMin+1)
	b := operandMin + rand.Intn(operandMax-operandMin+1)
	answer := strconv.Itoa(a + b)
	prompt := fmt.Sprintf("%d + %d =", a, b)

	img, err := s.renderer.Render(prompt)
	if err != nil {
		return nil, apperrors.Render(err)
	}

	var opErr error
	found := s.table.Mutate(id, func(sess *model.Session) bool {
		now := s.now()
		if sess.Expired(now) {
			opErr = apperrors.SessionExpired()
			return false
		}
		// Challenge expiry never outlives the session itself.
		expiresAt := now.Add(s.captchaTTL)
		if expiresAt.After(sess.ExpiresAt) {
			expiresAt = sess.ExpiresAt
		}
		sess.CaptchaAnswer = answer
		sess.CaptchaImage = img
		sess.CaptchaExpiresAt = &expiresAt
		return true
	})
	if !found {
		return nil, apperrors.SessionNotFound()
	}
	if opErr != nil {
		return nil, opErr
	}

	metrics.ChallengesIssued.Inc()
	log.Debug().
		Str("sessionId", id).
		Str("prompt", prompt).
		Msg("challenge issued")

	return img, nil
}

// Image returns the outstanding challenge image, unchanged. It is a
// side-effect-free read: a stale challenge yields CaptchaExpired but the
// session itself is left in place.
func (s *CaptchaService) Image(ctx context.Context, id string) ([]byte, error) {
	sess, ok := s.table.Get(id)
	if !ok {
		return nil, apperrors.SessionNotFound()
	}
	if !sess.HasCaptcha(s.now()) {
		return nil, apperrors.CaptchaExpired()
	}
	return sess.CaptchaImage, nil
}

// Verify compares userInput against the outstanding challenge answer.
// Preconditions are checked in order: existence, session expiry (which
// deletes the record), the verified lock, challenge expiry. The flag flip
// and challenge-field clearing happen as one atomic step under the record
// lock, so of N racing verifies at most one can observe success.
//
// A wrong answer is a normal result, not an error; the challenge stays
// outstanding and re-attemptable.
func (s *CaptchaService) Verify(ctx context.Context, id, userInput string) (*model.VerifyResult, error) {
	var result *model.VerifyResult
	var opErr error

	found := s.table.Mutate(id, func(sess *model.Session) bool {
		now := s.now()
		if sess.Expired(now) {
			opErr = apperrors.SessionExpired()
			return false
		}
		if sess.Verified {
			opErr = apperrors.AlreadyVerified()
			return true
		}
		if !sess.HasCaptcha(now) {
			opErr = apperrors.CaptchaExpired()
			return true
		}

		if strings.EqualFold(userInput, sess.CaptchaAnswer) {
			verifiedAt := now
			sess.Verified = true
			sess.VerifiedAt = &verifiedAt
			sess.ClearCaptcha()
			result = &model.VerifyResult{Status: "success", Message: "Captcha verified"}
		} else {
			result = &model.VerifyResult{Status: "error", Message: "Invalid captcha"}
		}
		return true
	})

	if !found {
		metrics.Verifications.WithLabelValues("not_found").Inc()
		return nil, apperrors.SessionNotFound()
	}
	if opErr != nil {
		metrics.Verifications.WithLabelValues(verifyFailureLabel(opErr)).Inc()
		return nil, opErr
	}

	if result.Status == "success" {
		metrics.Verifications.WithLabelValues("success").Inc()
		log.Info().Str("sessionId", id).Msg("captcha verified")
	} else {
		metrics.Verifications.WithLabelValues("mismatch").Inc()
		log.Debug().Str("sessionId", id).Msg("captcha mismatch")
	}

	return result, nil
}

// Status is a side-effect-free snapshot of the session state. An absent
// record reads as expired; an expired record is reported but not deleted.
func (s *CaptchaService) Status(ctx context.Context, id string) model.Status {
	sess, ok := s.table.Get(id)
	if !ok {
		return model.Status{Exists: false, Expired: true, Verified: false, HasCaptcha: false}
	}

	now := s.now()
	return model.Status{
		Exists:     true,
		Expired:    sess.Expired(now),
		Verified:   sess.Verified,
		HasCaptcha: sess.HasCaptcha(now),
	}
}

func verifyFailureLabel(err error) string {
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeSessionExpired:
		return "session_expired"
	case apperrors.ErrCodeAlreadyVerified:
		return "already_verified"
	case apperrors.ErrCodeCaptchaExpired:
		return "captcha_expired"
	default:
		return "error"
	}
}
