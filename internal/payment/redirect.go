package payment

import (
	"net/url"
	"strings"

	"github.com/medipal-health/appstate-service/internal/config"
)

// Outcome classifies a navigated URL within a payment redirect chain.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Classifier decides what a gateway redirect means. Success is recognized
// two ways, matching the gateway contract: the URL carries the success
// fragment, or the browser has left the gateway's host for the return
// domain. Both exits take the same completion path.
type Classifier struct {
	GatewayHost     string
	SuccessFragment string
	FailureFragment string
}

// NewClassifier builds a classifier from payment configuration.
func NewClassifier(cfg config.PaymentConfig) Classifier {
	return Classifier{
		GatewayHost:     cfg.GatewayHost,
		SuccessFragment: cfg.SuccessFragment,
		FailureFragment: cfg.FailureFragment,
	}
}

// Classify maps one navigated URL to an outcome. Unparseable URLs and
// navigation still inside the gateway are pending.
func (c Classifier) Classify(rawURL string) Outcome {
	if rawURL == "" {
		return OutcomePending
	}

	if c.FailureFragment != "" && strings.Contains(rawURL, c.FailureFragment) {
		return OutcomeFailure
	}
	if c.SuccessFragment != "" && strings.Contains(rawURL, c.SuccessFragment) {
		return OutcomeSuccess
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return OutcomePending
	}
	if !strings.EqualFold(u.Hostname(), c.GatewayHost) {
		// Left the gateway without an explicit failure marker: the return
		// domain signals completion.
		return OutcomeSuccess
	}
	return OutcomePending
}
