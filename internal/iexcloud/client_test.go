package iexcloud_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/elbart/pecunia/internal/iexcloud"
)

func TestNewClient_RequiresToken(t *testing.T) {
	t.Parallel()

	_, err := iexcloud.NewClient("")
	require.Error(t, err)

	client, err := iexcloud.NewClient("test-token")
	require.NoError(t, err)
	require.NotNil(t, client)
}

func TestClient_TokenAndBaseURL(t *testing.T) {
	t.Parallel()

	// Arrange: a mock http client asserting URL shape.
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "localhost:9999", req.URL.Host)
			require.Equal(t, "/stock/AAPL/company", req.URL.Path)
			require.Equal(t, "test-token", req.URL.Query().Get("token"))
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`{"symbol":"AAPL"}`)),
			}, nil
		}).
		Times(1)

	client, err := iexcloud.NewClient("test-token",
		iexcloud.WithHTTPClient(httpClient),
		iexcloud.WithBaseURL("http://localhost:9999"))
	require.NoError(t, err)

	// Act
	profile, _, err := client.Company(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, "AAPL", profile.Symbol)
}

func TestClient_UsageHeaders(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	header := http.Header{}
	header.Set("iexcloud-messages-used", "42")
	header.Set("iexcloud-credits-used", "not-a-number")
	// premium headers absent entirely

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     header,
				Body:       io.NopCloser(bytes.NewBufferString(`[]`)),
			}, nil
		}).
		Times(1)

	client, err := iexcloud.NewClient("test-token", iexcloud.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, usage, err := client.IntradayPrices(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, 42, usage.MessagesUsed)
	require.Zero(t, usage.CreditsUsed)
	require.Zero(t, usage.PremiumMessagesUsed)
	require.Zero(t, usage.PremiumCreditsUsed)
}

func TestClient_MissingUsageHeadersDefaultToZero(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(bytes.NewBufferString(`[]`)),
			}, nil
		}).
		Times(1)

	client, err := iexcloud.NewClient("test-token", iexcloud.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, usage, err := client.IntradayPrices(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, iexcloud.UsageReport{}, usage)
}

func TestClient_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(_ *http.Request) (*http.Response, error) {
			return &http.Response{
				StatusCode: http.StatusForbidden,
				Body:       io.NopCloser(bytes.NewBufferString(`The API key provided is not valid.`)),
			}, nil
		}).
		Times(1)

	client, err := iexcloud.NewClient("bad-token", iexcloud.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, _, err = client.HistoricalPrices(context.Background(), "AAPL", "20210521")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestClient_EmptySymbolRejected(t *testing.T) {
	t.Parallel()

	client, err := iexcloud.NewClient("test-token")
	require.NoError(t, err)

	_, _, err = client.Company(context.Background(), "")
	require.Error(t, err)
	_, _, err = client.IntradayPrices(context.Background(), "")
	require.Error(t, err)
	_, _, err = client.HistoricalPrices(context.Background(), "", "20210521")
	require.Error(t, err)
}

func TestClient_CompanyDecodesCEOAliases(t *testing.T) {
	t.Parallel()

	// The upstream has shipped both spellings of the CEO key; both must
	// land in the same field.
	for _, body := range []string{
		`{"symbol":"AAPL","companyName":"Apple Inc","CEO":"Timothy Donald Cook"}`,
		`{"symbol":"AAPL","companyName":"Apple Inc","ceo":"Timothy Donald Cook"}`,
	} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))

		client, err := iexcloud.NewClient("test-token", iexcloud.WithBaseURL(srv.URL))
		require.NoError(t, err)

		profile, _, err := client.Company(context.Background(), "AAPL")
		require.NoError(t, err)
		require.Equal(t, "Apple Inc", profile.CompanyName)
		require.Equal(t, "Timothy Donald Cook", profile.CEO)
		srv.Close()
	}
}

func TestClient_HistoricalPricesDecode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/stock/AAPL/chart/date/20210521", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2021-05-21","minute":"09:30","label":"09:30 AM",
			 "high":126.27,"low":125.8,"open":125.81,"close":126.27,
			 "average":126.1,"volume":1815,"notional":228871.25,
			 "numberOfTrades":25,"changeOverTime":0},
			{"date":"2021-05-21","minute":"09:31","label":"09:31 AM",
			 "high":null,"low":null,"open":null,"close":null,
			 "average":null,"volume":null,"notional":null,
			 "numberOfTrades":0,"changeOverTime":null}
		]`))
	}))
	defer srv.Close()

	client, err := iexcloud.NewClient("test-token", iexcloud.WithBaseURL(srv.URL))
	require.NoError(t, err)

	observations, _, err := client.HistoricalPrices(context.Background(), "AAPL", "20210521")
	require.NoError(t, err)
	require.Len(t, observations, 2)

	first := observations[0]
	require.Equal(t, "2021-05-21", first.Date)
	require.Equal(t, "09:30", first.Minute)
	require.NotNil(t, first.High)
	require.InDelta(t, 126.27, *first.High, 1e-9)
	require.NotNil(t, first.Volume)
	require.EqualValues(t, 1815, *first.Volume)
	require.EqualValues(t, 25, first.NumberOfTrades)

	// market-closed minute: optionals null, trade count present
	second := observations[1]
	require.Nil(t, second.High)
	require.Nil(t, second.Volume)
	require.Zero(t, second.NumberOfTrades)
}

func TestClient_DecodeShapeMismatch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":"object"}`)) // array expected
	}))
	defer srv.Close()

	client, err := iexcloud.NewClient("test-token", iexcloud.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, _, err = client.IntradayPrices(context.Background(), "AAPL")
	require.Error(t, err)
}
