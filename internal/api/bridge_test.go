package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/angristan/hue-classic/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Do(ctx context.Context, method, url string, body []byte) (*Response, error) {
	args := m.Called(ctx, method, url, body)
	resp, _ := args.Get(0).(*Response)
	return resp, args.Error(1)
}

func okResponse(body string) *Response {
	return &Response{StatusCode: http.StatusOK, Body: []byte(body)}
}

func TestRegisterUser_UsernameLengthBoundaries(t *testing.T) {
	tests := []struct {
		length int
		valid  bool
	}{
		{9, false},
		{10, true},
		{25, true},
		{40, true},
		{41, false},
	}

	for _, tt := range tests {
		username := strings.Repeat("u", tt.length)
		transport := new(MockTransport)
		if tt.valid {
			transport.On("Do", mock.Anything, "POST", "http://10.0.0.2/api", mock.Anything).
				Return(okResponse(`[{"success":{"username":"`+username+`"}}]`), nil)
		}

		bridge := NewBridge("10.0.0.2", WithTransport(transport))
		reg, err := bridge.RegisterUser(context.Background(), "app#device", username)

		if tt.valid {
			require.NoError(t, err, "length %d", tt.length)
			assert.Equal(t, username, reg.Username)
			transport.AssertNumberOfCalls(t, "Do", 1)
		} else {
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "length %d: want ValidationError, got %v", tt.length, err)
			assert.Equal(t, "username", ve.Field)
			transport.AssertNotCalled(t, "Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		}
	}
}

func TestRegisterUser_RequestBody(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, "POST", "http://bridge.local/api", mock.MatchedBy(func(body []byte) bool {
		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			return false
		}
		return len(got) == 2 && got["devicetype"] == "hue-classic#laptop" && got["username"] == "0123456789"
	})).Return(okResponse(`[{"success":{"username":"0123456789"}}]`), nil)

	reg, err := NewBridge("bridge.local", WithTransport(transport)).
		RegisterUser(context.Background(), "hue-classic#laptop", "0123456789")

	require.NoError(t, err)
	assert.Equal(t, "0123456789", reg.Username)
	assert.Len(t, reg.Raw, 1)
	transport.AssertExpectations(t)
}

func TestRegisterUser_SuccessWithoutUsername(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(`[{"success":{}}]`), nil)

	reg, err := NewBridge("h", WithTransport(transport)).RegisterUser(context.Background(), "d", "0123456789")
	require.NoError(t, err)
	assert.Empty(t, reg.Username)
	assert.NotNil(t, reg.Raw)
}

func TestBridge_TransportFailure(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := NewBridge("h", WithTransport(transport)).RegisterUser(context.Background(), "d", "0123456789")

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "POST", te.Method)
	assert.True(t, IsRetryable(err))
}

func TestBridge_NonSuccessStatus(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, "GET", "http://h/api/secret-user-1/lights", mock.Anything).
		Return(&Response{StatusCode: http.StatusServiceUnavailable, Body: []byte("busy")}, nil)

	_, err := NewBridge("h", WithTransport(transport)).WithUser("secret-user-1").GetAllLights(context.Background())

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusServiceUnavailable, te.StatusCode)
	assert.NotContains(t, err.Error(), "secret-user-1")
	assert.True(t, IsRetryable(err))
}

func TestWithUser_DoesNotModifyReceiver(t *testing.T) {
	bridge := NewBridge("10.0.0.2")
	authed := bridge.WithUser("abcdefghij")
	other := bridge.WithUser("0123456789")

	assert.Equal(t, "10.0.0.2", authed.Host())
	assert.Equal(t, "abcdefghij", authed.Username())
	assert.Equal(t, "0123456789", other.Username())
}

func TestSetLightState_URLAndBody(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, "PUT", "http://h/api/user123456/lights/7/state", []byte(`{"on":true,"bri":254}`)).
		Return(okResponse(`[{"success":{"/lights/7/state/on":true}},{"success":{"/lights/7/state/bri":254}}]`), nil)

	result, err := NewBridge("h", WithTransport(transport)).
		WithUser("user123456").
		SetLightState(context.Background(), 7, models.OnCommand().WithBri(254))

	require.NoError(t, err)
	assert.Equal(t, true, result.Changes["/lights/7/state/on"])
	assert.Equal(t, json.Number("254"), result.Changes["/lights/7/state/bri"])
	assert.Len(t, result.Raw, 2)
	transport.AssertExpectations(t)
}

func TestSetLightState_EmptyCommandIsSent(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, "PUT", "http://h/api/user123456/lights/1/state", []byte(`{}`)).
		Return(okResponse(`[{"success":{}}]`), nil)

	_, err := NewBridge("h", WithTransport(transport)).
		WithUser("user123456").
		SetLightState(context.Background(), 1, models.EmptyCommand())

	require.NoError(t, err)
	transport.AssertExpectations(t)
}

func TestSetLightState_BridgeError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("Do", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(okResponse(`[{"error":{"type":3,"address":"/lights/99","description":"resource, /lights/99, not available"}}]`), nil)

	_, err := NewBridge("h", WithTransport(transport)).
		WithUser("user123456").
		SetLightState(context.Background(), 99, models.OffCommand())

	assert.True(t, IsBridgeError(err, ErrorCodeResourceNotAvailable))
	assert.False(t, IsRetryable(err))
}

func TestHTTPTransport_AgainstServer(t *testing.T) {
	var gotMethod, gotContentType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		_, _ = w.Write([]byte(`[{"success":{"/lights/4/state/on":false}}]`))
	}))
	defer srv.Close()

	bridge := NewBridge(strings.TrimPrefix(srv.URL, "http://"), WithTimeout(DefaultTimeout)).WithUser("user123456")
	result, err := bridge.SetLightState(context.Background(), 4, models.OffCommand())

	require.NoError(t, err)
	assert.Equal(t, "PUT", gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, `{"on":false}`, gotBody)
	assert.Equal(t, false, result.Changes["/lights/4/state/on"])
}

func TestNewBridge_TimeoutKeepsCustomTransport(t *testing.T) {
	tests := []struct {
		name string
		opts func(Transport) []Option
	}{
		{"transport first", func(tr Transport) []Option { return []Option{WithTransport(tr), WithTimeout(time.Second)} }},
		{"timeout first", func(tr Transport) []Option { return []Option{WithTimeout(time.Second), WithTransport(tr)} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			transport.On("Do", mock.Anything, "PUT", "http://h/api/user123456/lights/1/state", []byte(`{"on":true}`)).
				Return(okResponse(`[{"success":{"/lights/1/state/on":true}}]`), nil)

			bridge := NewBridge("h", tt.opts(transport)...).WithUser("user123456")
			_, err := bridge.SetLightState(context.Background(), 1, models.OnCommand())

			require.NoError(t, err)
			transport.AssertExpectations(t)
		})
	}
}
