// Package pipeline runs a contact submission through the anti-spam gate,
// rate limiter, validator and sanitizer, and hands accepted submissions to
// the notifier. Each stage may end the run; later stages then never execute.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/solartech/sitio/internal/app/notify"
	"github.com/solartech/sitio/internal/app/policy"
	"github.com/solartech/sitio/internal/app/ratelimit"
	"github.com/solartech/sitio/internal/app/siteconfig"
	"github.com/solartech/sitio/internal/domain/models"
	"github.com/solartech/sitio/metrics"
	"go.uber.org/zap"
)

// Notifier delivers a sanitized submission.
type Notifier interface {
	Notify(ctx context.Context, sub models.Submission, site *models.SiteConfig) (notify.Payload, error)
	TransportName() string
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Limiter   ratelimit.Limiter
	Validator *policy.Validator
	Notifier  Notifier
	Sites     siteconfig.Provider
	Logger    *zap.Logger
}

// Result describes a run. Decision is nil when the limiter was not
// consulted (honeypot hit) or its store failed.
type Result struct {
	SubmissionID string
	Decision     *ratelimit.Decision
}

// Pipeline is safe for concurrent use.
type Pipeline struct {
	limiter   ratelimit.Limiter
	validator *policy.Validator
	notifier  Notifier
	sites     siteconfig.Provider
	logger    *zap.Logger
}

// New wires a Pipeline. Limiter, Notifier and Sites are required.
func New(d Deps) *Pipeline {
	if d.Validator == nil {
		d.Validator = policy.NewValidator()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Pipeline{
		limiter:   d.Limiter,
		validator: d.Validator,
		notifier:  d.Notifier,
		sites:     d.Sites,
		logger:    d.Logger,
	}
}

// Submit processes one submission from the client identified by key. A nil
// error means the notification was handed off successfully; otherwise the
// error is a *Error.
func (p *Pipeline) Submit(ctx context.Context, key string, in models.Submission) (Result, error) {
	res := Result{SubmissionID: uuid.NewString()}
	log := p.logger.With(zap.String("submission_id", res.SubmissionID), zap.String("client", key))

	if policy.IsSpam(in.Website) {
		log.Info("honeypot field filled; submission dropped")
		metrics.RecordSubmission(string(KindSpamRejected))
		return res, spamRejected()
	}

	d, err := p.limiter.Allow(ctx, key)
	switch {
	case err != nil:
		log.Warn("rate limiter unavailable; allowing submission", zap.Error(err))
	case !d.Allowed:
		res.Decision = &d
		log.Info("rate limit exceeded", zap.Time("reset_at", d.ResetAt))
		metrics.RecordSubmission(string(KindRateLimited))
		return res, rateLimited()
	default:
		res.Decision = &d
	}

	vr := p.validator.Validate(in)
	if !vr.Valid {
		log.Debug("submission failed validation", zap.Strings("fields", vr.FieldErrors.Fields()))
		metrics.RecordSubmission(string(KindInputRejected))
		return res, inputRejected(vr.FieldErrors)
	}

	clean := policy.SanitizeSubmission(in)

	site, err := p.sites.Current()
	if err != nil {
		log.Warn("site config unavailable; notifying with defaults",
			zap.String("kind", string(KindConfigurationError)), zap.Error(err))
		site = nil
	}

	start := time.Now()
	_, err = p.notifier.Notify(ctx, clean, site)
	metrics.ObserveNotify(p.notifier.TransportName(), time.Since(start))
	if err != nil {
		if errors.Is(err, notify.ErrNoRecipient) {
			log.Error("no destination address for contact notification", zap.Error(err))
		} else {
			log.Error("contact notification failed", zap.String("transport", p.notifier.TransportName()), zap.Error(err))
		}
		metrics.RecordSubmission(string(KindTransportFailure))
		return res, transportFailure(err)
	}

	log.Info("contact submission delivered", zap.String("transport", p.notifier.TransportName()))
	metrics.RecordSubmission("delivered")
	return res, nil
}
