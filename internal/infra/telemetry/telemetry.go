package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/virgantara/yii2-basic-template/internal/infra/config"
)

// Provider holds process-level collectors not tied to a single request.
type Provider struct {
	mailSendFailures prometheus.Counter
	tokensIssued     *prometheus.CounterVec
	tokensConsumed   *prometheus.CounterVec
}

// Attach registers the collectors with the default registerer.
func Attach(cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	namespace := cfg.Telemetry.MetricsNamespace
	if namespace == "" {
		namespace = "site"
	}

	return &Provider{
		mailSendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_send_failures_total",
			Help:      "Total number of failed outbound mail deliveries",
		}),
		tokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_tokens_issued_total",
			Help:      "Action tokens issued, partitioned by purpose",
		}, []string{"purpose"}),
		tokensConsumed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_tokens_consumed_total",
			Help:      "Action tokens consumed, partitioned by purpose",
		}, []string{"purpose"}),
	}, nil
}

// MailSendFailed increments the failed delivery counter.
func (p *Provider) MailSendFailed() {
	if p == nil {
		return
	}
	p.mailSendFailures.Inc()
}

// TokenIssued increments the issue counter for the purpose.
func (p *Provider) TokenIssued(purpose string) {
	if p == nil {
		return
	}
	p.tokensIssued.WithLabelValues(purpose).Inc()
}

// TokenConsumed increments the consume counter for the purpose.
func (p *Provider) TokenConsumed(purpose string) {
	if p == nil {
		return
	}
	p.tokensConsumed.WithLabelValues(purpose).Inc()
}
