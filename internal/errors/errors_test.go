package errors_test

import (
	"testing"

	"github.com/pkg/errors"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestUpstreamError_MatchesThroughWrapping(t *testing.T) {
	upstream := relayerrors.NewUpstreamError("school", 502, []byte(`{"message":"down"}`), errors.New("GET /webapi/context failed"))
	err := errors.Wrap(upstream, "[Profile] fetch failed")

	require.True(t, relayerrors.Is(err, relayerrors.ErrUpstreamUnavailable))
	require.False(t, relayerrors.Is(err, relayerrors.ErrSessionNotFound))

	var found *relayerrors.UpstreamError
	require.True(t, relayerrors.As(err, &found))
	require.Equal(t, "school", found.Service)
	require.JSONEq(t, `{"message":"down"}`, string(found.Details))
	require.Equal(t, "school upstream unavailable (status 502): GET /webapi/context failed", found.Error())
}

func TestNewUpstreamError_Details(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		want string
	}{
		{name: "json body kept", body: []byte(`[1,2]`), want: `[1,2]`},
		{name: "html body quoted", body: []byte(`<h1>Bad Gateway</h1>`), want: `"<h1>Bad Gateway</h1>"`},
		{name: "no body", body: nil, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ue := relayerrors.NewUpstreamError("identity", 0, tt.body, nil)
			require.Equal(t, tt.want, string(ue.Details))
		})
	}
}
