package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/metrics"
)

// Gateway pushes texts through an Evolution-style WhatsApp HTTP API.
type Gateway struct {
	http       *resty.Client
	instance   string
	testNumber string
	logg       *logger.Logger
	metrics    *metrics.RFIDMetrics
}

func NewGateway(cfg config.NotifyConfig, logg *logger.Logger, m *metrics.RFIDMetrics) (*Gateway, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.CodeInternal, "notify: gateway url, instance and token are required")
	}
	if logg == nil {
		return nil, errors.New(errors.CodeInternal, "notify: logger is required")
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.GatewayURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader(cfg.TokenHeader, cfg.Token).
		SetHeader("Content-Type", "application/json")
	return &Gateway{
		http:       client,
		instance:   cfg.Instance,
		testNumber: cfg.TestNumber,
		logg:       logg,
		metrics:    m,
	}, nil
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

func (g *Gateway) NotifyLocationChange(ctx context.Context, change LocationChange) (Result, error) {
	result, err := g.notify(ctx, change)
	g.metrics.ObserveNotify(string(result))
	return result, err
}

func (g *Gateway) notify(ctx context.Context, change LocationChange) (Result, error) {
	destination := change.Phone
	if g.testNumber != "" {
		destination = g.testNumber
	}
	if strings.TrimSpace(destination) == "" {
		g.logg.Info(ctx, fmt.Sprintf("notify: order %d has no phone on file, skipping", change.OrderID))
		return ResultSkipped, nil
	}
	number, err := NormalizePhone(destination)
	if err != nil {
		g.logg.Warn(ctx, fmt.Sprintf("notify: order %d has unusable phone, skipping", change.OrderID))
		return ResultSkipped, nil
	}

	body := sendTextRequest{Number: number, Text: RenderMessage(change)}
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(body).
		Post("/message/sendText/" + g.instance)
	if err != nil {
		return ResultFailed, errors.Wrap(errors.CodeDependency, err, "notify: calling message gateway")
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return ResultFailed, errors.New(errors.CodeDependency,
			fmt.Sprintf("notify: gateway returned %d", resp.StatusCode()))
	}
	return ResultOK, nil
}
