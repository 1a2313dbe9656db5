package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/scorewatch/scorewatch/internal/domain/notification"
	"github.com/scorewatch/scorewatch/internal/platform/logging"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	// URL is the endpoint each notification is POSTed to.
	URL     string
	Token   string
	Timeout time.Duration
	Logger  *logging.Logger
}

// Notifier delivers notifications to an external HTTP endpoint. It is one
// presenter implementation; delivery failure is surfaced to the queue so the
// notification is retried rather than lost.
type Notifier struct {
	url     string
	token   string
	timeout time.Duration
	logger  *logging.Logger
	httpc   *fasthttp.Client
}

type deliveryPayload struct {
	notification.Notification
	Text       string `json:"text"`
	DurationMS int64  `json:"duration_ms"`
	SentAt     string `json:"sent_at"`
}

func NewNotifier(cfg Config) (*Notifier, error) {
	if cfg.URL == "" {
		return nil, crerr.New("webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Notifier{
		url:     cfg.URL,
		token:   cfg.Token,
		timeout: timeout,
		logger:  logger,
		httpc: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
	}, nil
}

// Present POSTs one notification. A non-2xx response or transport error is
// returned as a failure so the caller can requeue.
func (n *Notifier) Present(ctx context.Context, item notification.Notification) error {
	payload := deliveryPayload{
		Notification: item,
		Text:         item.Text(),
		DurationMS:   item.DisplayDuration().Milliseconds(),
		SentAt:       time.Now().UTC().Format(time.RFC3339),
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	raw, err := sonic.Marshal(payload)
	if err != nil {
		return crerr.Wrap(err, "encode notification payload")
	}
	_, _ = buf.Write(raw)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(n.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if n.token != "" {
		req.Header.Set("authorization", "Bearer "+n.token)
	}
	req.SetBody(buf.B)

	deadline := time.Now().Add(n.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := n.httpc.DoDeadline(req, resp, deadline); err != nil {
		return crerr.Wrap(err, "deliver notification")
	}

	status := resp.StatusCode()
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return fmt.Errorf("notification endpoint status=%d", status)
	}

	n.logger.DebugContext(ctx, "notification delivered", "type", item.Type, "league", item.League)
	return nil
}
