package homework

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logx "hwbot/pkg/logx"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Endpoint: srv.URL + "/api/user_api/homework_statuses/", Token: "secret"}, logx.Nop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestFetchLatestSendsAuthAndWatermark(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/user_api/homework_statuses/", r.URL.Path)
		assert.Equal(t, "OAuth secret", r.Header.Get("Authorization"))
		assert.Equal(t, "1000", r.URL.Query().Get("from_date"))
		_, _ = w.Write([]byte(`{"homeworks":[],"current_date":1001}`))
	})

	body, err := c.FetchLatest(context.Background(), 1000)
	require.NoError(t, err)
	assert.JSONEq(t, `{"homeworks":[],"current_date":1001}`, string(body))
}

func TestFetchLatestNon200IsAnswerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.FetchLatest(context.Background(), 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAnswer)
	assert.Equal(t, KindAnswer, Classify(err))

	var ae *AnswerError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusServiceUnavailable, ae.StatusCode)
	assert.Equal(t, "0", ae.Params.Get("from_date"))
	assert.NotContains(t, err.Error(), "secret")
}

func TestFetchLatestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{Endpoint: url, Token: "secret"}, logx.Nop())
	require.NoError(t, err)

	_, err = c.FetchLatest(context.Background(), 5)
	assert.ErrorIs(t, err, ErrAnswer)
	var ae *AnswerError
	require.True(t, errors.As(err, &ae))
	assert.Zero(t, ae.StatusCode)
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{Endpoint: "https://example.org"}, logx.Nop())
	assert.Error(t, err)
	_, err = NewClient(Config{Endpoint: "not a url", Token: "x"}, logx.Nop())
	assert.Error(t, err)
}

func TestValidateResponse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		kind Kind
		n    int
	}{
		{name: "ok", body: `{"homeworks":[{"homework_name":"X","status":"approved"}],"current_date":1000}`, kind: KindOK, n: 1},
		{name: "empty list", body: `{"homeworks":[]}`, kind: KindOK, n: 0},
		{name: "missing key", body: `{"current_date":1000}`, kind: KindEmptyPayload},
		{name: "list at top", body: `[{"homeworks":[]}]`, kind: KindMalformed},
		{name: "null top", body: `null`, kind: KindMalformed},
		{name: "not json", body: `<html>`, kind: KindMalformed},
		{name: "homeworks object", body: `{"homeworks":{"a":1}}`, kind: KindMalformed},
		{name: "homeworks null", body: `{"homeworks":null}`, kind: KindMalformed},
		{name: "homeworks string", body: `{"homeworks":"[]"}`, kind: KindMalformed},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			resp, err := ValidateResponse(json.RawMessage(tt.body))
			if got := Classify(err); got != tt.kind {
				t.Fatalf("Classify = %v, want %v (err=%v)", got, tt.kind, err)
			}
			if tt.kind == KindOK && len(resp.Homeworks) != tt.n {
				t.Fatalf("len(Homeworks) = %d, want %d", len(resp.Homeworks), tt.n)
			}
		})
	}
}

func TestValidateResponseCurrentDate(t *testing.T) {
	resp, err := ValidateResponse(json.RawMessage(`{"homeworks":[],"current_date":1000}`))
	require.NoError(t, err)
	assert.True(t, resp.HasCurrentDate)
	assert.Equal(t, int64(1000), resp.CurrentDate)

	resp, err = ValidateResponse(json.RawMessage(`{"homeworks":[]}`))
	require.NoError(t, err)
	assert.False(t, resp.HasCurrentDate)

	resp, err = ValidateResponse(json.RawMessage(`{"homeworks":[],"current_date":null}`))
	require.NoError(t, err)
	assert.False(t, resp.HasCurrentDate)
	assert.Zero(t, resp.CurrentDate)
}

func TestExtractStatusMessage(t *testing.T) {
	resp, err := ValidateResponse(json.RawMessage(`{"homeworks":[{"homework_name":"X","status":"approved"}],"current_date":1000}`))
	require.NoError(t, err)

	msg, err := ExtractStatusMessage(resp.Homeworks[0])
	require.NoError(t, err)
	assert.Equal(t, `Изменился статус проверки работы "X". Работа проверена: ревьюеру всё понравилось. Ура!`, msg)
}

func TestExtractStatusMessageVerdicts(t *testing.T) {
	t.Parallel()
	for status, verdict := range Verdicts {
		msg, err := ExtractStatusMessage(Homework{Name: "hw", Status: status, HasName: true})
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf(`Изменился статус проверки работы "hw". %s`, verdict), msg)
	}
	assert.Len(t, Verdicts, 3)
}

func TestExtractStatusMessageParseErrors(t *testing.T) {
	t.Parallel()
	for name, body := range map[string]string{
		"missing name":   `{"homeworks":[{"status":"approved"}]}`,
		"unknown status": `{"homeworks":[{"homework_name":"X","status":"lost"}]}`,
		"empty status":   `{"homeworks":[{"homework_name":"X"}]}`,
		"not an object":  `{"homeworks":["X"]}`,
		"name not text":  `{"homeworks":[{"homework_name":5,"status":"approved"}]}`,
		"null name":      `{"homeworks":[{"homework_name":null,"status":"approved"}]}`,
	} {
		resp, err := ValidateResponse(json.RawMessage(body))
		require.NoError(t, err, name)
		_, err = ExtractStatusMessage(resp.Homeworks[0])
		assert.ErrorIs(t, err, ErrStatusParse, name)
		assert.Equal(t, KindStatusParse, Classify(err), name)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	assert.Equal(t, KindOK, Classify(nil))
	assert.Equal(t, KindUnexpected, Classify(errors.New("boom")))
	assert.Equal(t, KindEmptyPayload, Classify(fmt.Errorf("wrap: %w", ErrEmptyPayload)))
	assert.True(t, strings.HasPrefix(KindEmptyPayload.String(), "empty"))
}
