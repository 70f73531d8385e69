package rest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/yanun0323/errors"

	"main/internal/exchange"
	"main/internal/model/enum"
	"main/internal/order"
	"main/pkg/exception"
)

const (
	_submitPath = "/api/v1/order/submit"
	_cancelPath = "/api/v1/order/cancel"

	_requestTimeout = 15 * time.Second
)

// Client is the JSON-over-HTTP order delegator. A non-zero response
// code is an exchange-level rejection; everything else that fails is
// transient and retryable by the caller.
type Client struct {
	client    *http.Client
	baseURL   string
	accessID  string
	secretKey string
}

func NewClient(client *http.Client, baseURL, accessID, secretKey string) *Client {
	return &Client{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		accessID:  accessID,
		secretKey: secretKey,
	}
}

var _ exchange.Delegator = (*Client)(nil)

type submitBody struct {
	AccessID   string    `json:"access_id"`
	Tm         string    `json:"tm"`
	Instrument string    `json:"instrument"`
	Method     string    `json:"method"`
	Legs       []legBody `json:"legs"`
}

type legBody struct {
	Side         string `json:"side"`
	Kind         string `json:"kind"`
	Size         string `json:"size"`
	Price        string `json:"price,omitempty"`
	TriggerPrice string `json:"trigger_price,omitempty"`
	TrailOffset  string `json:"trail_offset,omitempty"`
}

func (c *Client) Submit(ctx context.Context, ord *order.Order) (exchange.SubmitAck, error) {
	if ord == nil {
		return exchange.SubmitAck{}, exception.ErrNilInstance
	}

	body := submitBody{
		AccessID:   c.accessID,
		Tm:         strconv.FormatInt(time.Now().Unix(), 10),
		Instrument: ord.Instrument,
		Method:     wireMethod(ord.Method),
		Legs:       make([]legBody, 0, len(ord.Legs)),
	}
	for i := range ord.Legs {
		leg := &ord.Legs[i]
		body.Legs = append(body.Legs, legBody{
			Side:         wireSide(leg.Side),
			Kind:         wireKind(leg.Kind),
			Size:         leg.Size.String(),
			Price:        emptyIfZero(leg.Price.String(), leg.Kind.RequiresPrice()),
			TriggerPrice: emptyIfZero(leg.TriggerPrice.String(), leg.Kind.RequiresTrigger()),
			TrailOffset:  emptyIfZero(leg.TrailOffset.String(), leg.Kind.RequiresTrail()),
		})
	}

	var data Response[ResponseSubmitOrder]
	if err := c.post(ctx, _submitPath, body, map[string]string{
		"access_id":  body.AccessID,
		"tm":         body.Tm,
		"instrument": body.Instrument,
		"method":     body.Method,
	}, &data); err != nil {
		return exchange.SubmitAck{}, err
	}

	if data.Code != 0 {
		return exchange.SubmitAck{}, errors.Wrap(exception.ErrOrderRejected,
			fmt.Sprintf("submit, code: %d, message: %s", data.Code, data.Message))
	}
	if len(data.Data.AcceptanceID) == 0 {
		return exchange.SubmitAck{}, errors.New("submit: empty acceptance id in response")
	}
	return exchange.SubmitAck{
		AcceptanceID:     data.Data.AcceptanceID,
		LegAcceptanceIDs: data.Data.LegAcceptanceIDs,
	}, nil
}

type cancelBody struct {
	AccessID     string `json:"access_id"`
	Tm           string `json:"tm"`
	Instrument   string `json:"instrument"`
	AcceptanceID string `json:"acceptance_id,omitempty"`
	OrderID      string `json:"order_id,omitempty"`
}

func (c *Client) Cancel(ctx context.Context, req exchange.CancelRequest) error {
	body := cancelBody{
		AccessID:     c.accessID,
		Tm:           strconv.FormatInt(time.Now().Unix(), 10),
		Instrument:   req.Instrument,
		AcceptanceID: req.AcceptanceID,
		OrderID:      req.ExchangeID,
	}

	var data Response[ResponseCancelOrder]
	if err := c.post(ctx, _cancelPath, body, map[string]string{
		"access_id":     body.AccessID,
		"tm":            body.Tm,
		"instrument":    body.Instrument,
		"acceptance_id": body.AcceptanceID,
		"order_id":      body.OrderID,
	}, &data); err != nil {
		return err
	}

	if data.Code != 0 {
		return errors.Wrap(exception.ErrOrderRejected,
			fmt.Sprintf("cancel, code: %d, message: %s", data.Code, data.Message))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any, signed map[string]string, out any) error {
	payload, err := sonic.ConfigFastest.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal request body")
	}

	ctx, cancel := context.WithTimeout(ctx, _requestTimeout)
	defer cancel()
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("authorization", c.sign(signed))

	resp, err := c.client.Do(r)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.New("server error, status: " + resp.Status)
	}

	if err := sonic.ConfigFastest.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response body")
	}
	return nil
}

// sign builds the md5 signature over the sorted scalar params plus the
// secret key.
func (c *Client) sign(params map[string]string) string {
	pairs := make([]string, 0, len(params)+1)
	for k, v := range params {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, v))
	}
	pairs = append(pairs, fmt.Sprintf("secret_key=%s", c.secretKey))
	sort.Strings(pairs)
	hash := md5.Sum([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(hash[:])
}

func wireSide(side enum.OrderSide) string {
	switch side {
	case enum.OrderSideSell:
		return "sell"
	default:
		return "buy"
	}
}

func wireKind(kind enum.LegKind) string {
	switch kind {
	case enum.LegKindLimit:
		return "limit"
	case enum.LegKindStop:
		return "stop"
	case enum.LegKindStopLimit:
		return "stop_limit"
	case enum.LegKindTrailingStop:
		return "trailing_stop"
	default:
		return "market"
	}
}

func wireMethod(method enum.OrderingMethod) string {
	switch method {
	case enum.OrderingMethodIfDone:
		return "ifd"
	case enum.OrderingMethodOneCancelsOther:
		return "oco"
	case enum.OrderingMethodIfDoneOneCancelsOther:
		return "ifdoco"
	default:
		return "simple"
	}
}

func emptyIfZero(s string, required bool) string {
	if !required {
		return ""
	}
	return s
}
