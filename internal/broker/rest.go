package broker

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	domainerrors "krx-trader/internal/errors"
	"krx-trader/internal/models"
	"krx-trader/pkg/utils"
)

// RESTConfig holds configuration for the REST brokerage client.
type RESTConfig struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	AccountNo string
	Timeout   time.Duration
}

// RESTBroker implements Broker over the brokerage's HTTP API.
type RESTBroker struct {
	client *resty.Client
	cfg    RESTConfig
	logger zerolog.Logger

	mu          sync.RWMutex
	accessToken string
	tokenExpiry time.Time
}

// NewRESTBroker creates a new REST brokerage client.
func NewRESTBroker(cfg RESTConfig, logger zerolog.Logger) *RESTBroker {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json; charset=utf-8")

	return &RESTBroker{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "broker").Logger(),
	}
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_dt"`
}

// Authenticate issues an access token from the app key and secret.
// Token issuance is retried with backoff since it gates everything
// else.
func (b *RESTBroker) Authenticate(ctx context.Context) error {
	var tok tokenResponse
	err := utils.Retry(ctx, utils.DefaultRetryConfig(), func() error {
		resp, err := b.client.R().
			SetContext(ctx).
			SetBody(map[string]string{
				"grant_type": "client_credentials",
				"appkey":     b.cfg.AppKey,
				"secretkey":  b.cfg.AppSecret,
			}).
			SetResult(&tok).
			Post("/oauth2/token")
		if err != nil {
			return fmt.Errorf("token request: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("token request: %w: status %d", domainerrors.ErrConnectionFailed, resp.StatusCode())
		}
		return nil
	})
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.accessToken = tok.Token
	b.tokenExpiry = time.Unix(tok.ExpiresIn, 0)
	b.mu.Unlock()

	b.logger.Info().Time("expires", time.Unix(tok.ExpiresIn, 0)).Msg("access token issued")
	return nil
}

// AccessToken returns the current access token, used for the streaming
// session login.
func (b *RESTBroker) AccessToken() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.accessToken
}

func (b *RESTBroker) authHeader() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.accessToken == "" {
		return "", domainerrors.ErrNotLoggedIn
	}
	return "Bearer " + b.accessToken, nil
}

type rankingItem struct {
	Code          string `json:"stk_cd"`
	Name          string `json:"stk_nm"`
	Price         string `json:"cur_prc"`
	ChangePercent string `json:"flu_rt"`
	Volume        string `json:"trde_qty"`
	Open          string `json:"open_pric"`
	High          string `json:"high_pric"`
	Low           string `json:"low_pric"`
	PrevVolume    string `json:"pred_trde_qty"`
}

type rankingResponse struct {
	Items []rankingItem `json:"items"`
}

// FetchCandidates pulls the change-rate ranking for the market segment.
func (b *RESTBroker) FetchCandidates(ctx context.Context, market models.Market) ([]models.Snapshot, error) {
	auth, err := b.authHeader()
	if err != nil {
		return nil, err
	}

	var out rankingResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetQueryParam("market", string(market)).
		SetResult(&out).
		Get("/api/v1/ranking/fluctuation")
	if err != nil {
		return nil, fmt.Errorf("fetching candidates: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetching candidates: unexpected status %d", resp.StatusCode())
	}

	snaps := make([]models.Snapshot, 0, len(out.Items))
	for _, it := range out.Items {
		snaps = append(snaps, models.Snapshot{
			Code:          it.Code,
			Name:          it.Name,
			Price:         parsePrice(it.Price),
			ChangePercent: parsePrice(it.ChangePercent),
			Volume:        parseQty(it.Volume),
			Open:          parsePrice(it.Open),
			High:          parsePrice(it.High),
			Low:           parsePrice(it.Low),
			PrevVolume:    parseQty(it.PrevVolume),
			Timestamp:     time.Now(),
		})
	}
	return snaps, nil
}

// FetchQuote pulls the current snapshot of one instrument.
func (b *RESTBroker) FetchQuote(ctx context.Context, code string) (*models.Snapshot, error) {
	auth, err := b.authHeader()
	if err != nil {
		return nil, err
	}

	var it rankingItem
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetResult(&it).
		Get("/api/v1/quote/" + code)
	if err != nil {
		return nil, fmt.Errorf("fetching quote %s: %w", code, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetching quote %s: unexpected status %d", code, resp.StatusCode())
	}

	return &models.Snapshot{
		Code:          code,
		Name:          it.Name,
		Price:         parsePrice(it.Price),
		ChangePercent: parsePrice(it.ChangePercent),
		Volume:        parseQty(it.Volume),
		Open:          parsePrice(it.Open),
		High:          parsePrice(it.High),
		Low:           parsePrice(it.Low),
		PrevVolume:    parseQty(it.PrevVolume),
		Timestamp:     time.Now(),
	}, nil
}

type orderResponse struct {
	OrderID    string `json:"ord_no"`
	ReturnCode int    `json:"return_code"`
	ReturnMsg  string `json:"return_msg"`
}

// SubmitOrder submits a market or limit order. A brokerage rejection is
// reported through OrderResult, not as an error: only transport and
// protocol failures return one.
func (b *RESTBroker) SubmitOrder(ctx context.Context, order *models.Order) (*OrderResult, error) {
	auth, err := b.authHeader()
	if err != nil {
		return nil, err
	}

	path := "/api/v1/orders/buy"
	if order.Side == models.OrderSideSell {
		path = "/api/v1/orders/sell"
	}

	var out orderResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Authorization", auth).
		SetBody(map[string]interface{}{
			"acnt_no": b.cfg.AccountNo,
			"stk_cd":  order.Code,
			"ord_qty": order.Quantity,
			"ord_prc": order.Price,
			"ord_tp":  string(order.Type),
		}).
		SetResult(&out).
		Post(path)
	if err != nil {
		return nil, domainerrors.NewOrderError(order.Code, string(order.Side), "transport failure", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, domainerrors.NewOrderError(order.Code, string(order.Side),
			fmt.Sprintf("unexpected status %d", resp.StatusCode()), nil)
	}

	result := &OrderResult{
		OrderID: out.OrderID,
		Filled:  out.ReturnCode == 0,
		Message: out.ReturnMsg,
	}
	b.logger.Debug().
		Str("code", order.Code).
		Str("side", string(order.Side)).
		Int64("qty", order.Quantity).
		Bool("filled", result.Filled).
		Msg("order submitted")
	return result, nil
}

func parsePrice(s string) float64 {
	var v float64
	fmt.Sscanf(trimSign(s), "%f", &v)
	return v
}

func parseQty(s string) int64 {
	var v int64
	fmt.Sscanf(trimSign(s), "%d", &v)
	return v
}

// trimSign strips the +/- prefix some quote fields carry on the wire.
func trimSign(s string) string {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			return s
		}
		return s[1:]
	}
	return s
}

var _ Broker = (*RESTBroker)(nil)
