package school

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/savendebyc-boop/sgo-telma/cookies"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
)

// Fixed client/site/device identifiers required by the upstream login contract.
const (
	loginType = 1
	loginCID  = 2
	loginSID  = 23
	loginPID  = -1
	loginCN   = -1
	loginSFT  = 2
	loginSCID = 2
)

// loginData is the step 1 payload. Both values are opaque and forwarded as is.
type loginData struct {
	LT  json.RawMessage `json:"lt"`
	Ver json.RawMessage `json:"ver"`
}

type loginRequest struct {
	LoginType int             `json:"loginType"`
	CID       int             `json:"cid"`
	SID       int             `json:"sid"`
	PID       int             `json:"pid"`
	CN        int             `json:"cn"`
	SFT       int             `json:"sft"`
	SCID      int             `json:"scid"`
	UN        string          `json:"UN"`
	PW        string          `json:"PW"`
	LT        json.RawMessage `json:"lt"`
	PW2       string          `json:"pw2"`
	Ver       json.RawMessage `json:"ver"`
}

type loginResponse struct {
	AT          *string         `json:"at"`
	AccountInfo json.RawMessage `json:"accountInfo"`
}

type accountInfo struct {
	User struct {
		ID json.Number `json:"id"`
	} `json:"user"`
}

// LoginResult is everything a password session needs.
type LoginResult struct {
	Credentials
	UserID      string
	AccountInfo json.RawMessage
}

// Login runs the two step handshake: fetch login data (cookies, lt, ver), then
// submit the credentials with them. A response without "at" is
// ErrInvalidCredentials whatever the HTTP status.
func (c *Client) Login(ctx context.Context, username, password, region string) (*LoginResult, error) {
	baseURL := c.BaseURL(region)
	jar := make(cookies.Jar)

	data, err := c.fetchLoginData(ctx, baseURL, jar)
	if err != nil {
		return nil, err
	}

	req, err := jsonRequest(ctx, http.MethodPost, baseURL+PathLogin, loginRequest{
		LoginType: loginType,
		CID:       loginCID,
		SID:       loginSID,
		PID:       loginPID,
		CN:        loginCN,
		SFT:       loginSFT,
		SCID:      loginSCID,
		UN:        username,
		PW:        password,
		LT:        orNull(data.LT),
		PW2:       "",
		Ver:       orNull(data.Ver),
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	if cookie := cookies.Encode(jar); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}

	status, header, body, err := c.do(req)
	if err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, err)
	}
	mergeCookies(jar, header, "login")

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, fmt.Errorf("failed to parse login response: %w", err))
	}
	if resp.AT == nil || *resp.AT == "" {
		return nil, relayerrors.ErrInvalidCredentials
	}

	return &LoginResult{
		Credentials: Credentials{
			BaseURL:     baseURL,
			Cookies:     jar,
			AccessToken: *resp.AT,
		},
		UserID:      userIDFrom(resp.AccountInfo),
		AccountInfo: resp.AccountInfo,
	}, nil
}

func (c *Client) fetchLoginData(ctx context.Context, baseURL string, jar cookies.Jar) (*loginData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+PathLoginData, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	status, header, body, err := c.do(req)
	if err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, err)
	}
	if status < 200 || status > 299 {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, fmt.Errorf("login data request failed"))
	}
	mergeCookies(jar, header, "logindata")

	var data loginData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, status, body, fmt.Errorf("failed to parse login data: %w", err))
	}
	return &data, nil
}

// userIDFrom reads accountInfo.user.id; a missing or odd shaped id yields "".
func userIDFrom(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var info accountInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return ""
	}
	return info.User.ID.String()
}

func orNull(v json.RawMessage) json.RawMessage {
	if len(v) == 0 {
		return json.RawMessage("null")
	}
	return v
}
