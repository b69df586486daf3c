package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "krx-trader/internal/errors"
	"krx-trader/internal/models"
)

func newTestRESTBroker(t *testing.T, handler http.Handler) *RESTBroker {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRESTBroker(RESTConfig{
		BaseURL:   srv.URL,
		AppKey:    "app-key",
		AppSecret: "app-secret",
		AccountNo: "8012345-01",
	}, zerolog.Nop())
}

func TestAuthenticateIssuesToken(t *testing.T) {
	b := newTestRESTBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/oauth2/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_credentials", body["grant_type"])
		assert.Equal(t, "app-key", body["appkey"])

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":      "token-abc",
			"expires_dt": 1893456000,
		})
	}))

	require.NoError(t, b.Authenticate(context.Background()))
	assert.Equal(t, "token-abc", b.AccessToken())
}

func TestRequestsRequireToken(t *testing.T) {
	b := newTestRESTBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request reached server without a token")
	}))

	_, err := b.FetchCandidates(context.Background(), models.MarketKOSPI)
	assert.ErrorIs(t, err, domainerrors.ErrNotLoggedIn)

	_, err = b.FetchQuote(context.Background(), "005930")
	assert.ErrorIs(t, err, domainerrors.ErrNotLoggedIn)

	_, err = b.SubmitOrder(context.Background(), &models.Order{Code: "005930"})
	assert.ErrorIs(t, err, domainerrors.ErrNotLoggedIn)
}

func TestFetchCandidatesParsesRanking(t *testing.T) {
	b := newTestRESTBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth2/token":
			json.NewEncoder(w).Encode(map[string]interface{}{"token": "token-abc"})
		case "/api/v1/ranking/fluctuation":
			assert.Equal(t, "Bearer token-abc", r.Header.Get("Authorization"))
			assert.Equal(t, "KOSPI", r.URL.Query().Get("market"))
			w.Write([]byte(`{"items":[
				{"stk_cd":"005930","stk_nm":"삼성전자","cur_prc":"+71400","flu_rt":"+2.00",
				 "trde_qty":"1200000","open_pric":"+70000","high_pric":"+71500","low_pric":"-69800",
				 "pred_trde_qty":"900000"}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, b.Authenticate(context.Background()))

	snaps, err := b.FetchCandidates(context.Background(), models.MarketKOSPI)
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	snap := snaps[0]
	assert.Equal(t, "005930", snap.Code)
	assert.Equal(t, "삼성전자", snap.Name)
	assert.Equal(t, 71400.0, snap.Price)
	assert.Equal(t, 2.0, snap.ChangePercent)
	assert.Equal(t, int64(1200000), snap.Volume)
	assert.Equal(t, 71500.0, snap.High)
	assert.Equal(t, -69800.0, snap.Low)
	assert.Equal(t, int64(900000), snap.PrevVolume)
}

func TestSubmitOrderMapsRejection(t *testing.T) {
	b := newTestRESTBroker(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/oauth2/token":
			json.NewEncoder(w).Encode(map[string]interface{}{"token": "token-abc"})
		case "/api/v1/orders/buy":
			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "005930", body["stk_cd"])
			assert.Equal(t, "8012345-01", body["acnt_no"])
			w.Write([]byte(`{"ord_no":"","return_code":8,"return_msg":"insufficient cash"}`))
		case "/api/v1/orders/sell":
			w.Write([]byte(`{"ord_no":"240304000123","return_code":0,"return_msg":"ok"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, b.Authenticate(context.Background()))

	buy := &models.Order{
		Code: "005930", Side: models.OrderSideBuy, Type: models.OrderTypeMarket,
		Quantity: 14, Price: 71400,
	}
	result, err := b.SubmitOrder(context.Background(), buy)
	require.NoError(t, err)
	assert.False(t, result.Filled)
	assert.Equal(t, "insufficient cash", result.Message)

	sell := &models.Order{
		Code: "005930", Side: models.OrderSideSell, Type: models.OrderTypeMarket,
		Quantity: 14, Price: 71400,
	}
	result, err = b.SubmitOrder(context.Background(), sell)
	require.NoError(t, err)
	assert.True(t, result.Filled)
	assert.Equal(t, "240304000123", result.OrderID)
}

func TestWireNumberParsing(t *testing.T) {
	assert.Equal(t, 71400.0, parsePrice("+71400"))
	assert.Equal(t, -69800.0, parsePrice("-69800"))
	assert.Equal(t, 2.35, parsePrice("+2.35"))
	assert.Zero(t, parsePrice(""))

	assert.Equal(t, int64(1200000), parseQty("+1200000"))
	assert.Equal(t, int64(-300), parseQty("-300"))
	assert.Zero(t, parseQty(""))
}
