package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	relayerrors "github.com/savendebyc-boop/sgo-telma/internal/errors"
	"github.com/savendebyc-boop/sgo-telma/internal/utils"
	"golang.org/x/oauth2"
)

const maxProfileBytes = 1 << 20

// Profile is the normalized person record of the identity provider.
type Profile struct {
	GivenName  string
	FamilyName string
	Patronymic string
	BirthDate  string
	NationalID string
	Email      string
	Phone      string
}

// person is the provider's profile-by-subject payload; every field may be absent.
type person struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	MiddleName *string `json:"middleName"`
	BirthDate  *string `json:"birthDate"`
	Snils      *string `json:"snils"`
	Email      *string `json:"email"`
	Mobile     *string `json:"mobile"`
}

// FetchProfile loads the subject's profile using the access token as a bearer
// credential.
func (c *Client) FetchProfile(ctx context.Context, accessToken, subject string) (*Profile, error) {
	if subject == "" {
		return nil, relayerrors.NewUpstreamError(serviceName, 0, nil, errors.New("identity token carried no subject"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL+"/"+url.PathEscape(subject), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create profile request")
	}
	req.Header.Set("Accept", "application/json")

	httpClient := oauth2.NewClient(c.clientContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, 0, nil, errors.Wrap(err, "profile request failed"))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBytes))
	if err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, resp.StatusCode, nil, errors.Wrap(err, "failed to read profile"))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, relayerrors.NewUpstreamError(serviceName, resp.StatusCode, body, fmt.Errorf("profile request returned %d", resp.StatusCode))
	}

	var p person
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, relayerrors.NewUpstreamError(serviceName, resp.StatusCode, body, errors.Wrap(err, "failed to decode profile"))
	}
	return &Profile{
		GivenName:  strings.TrimSpace(utils.Value(p.FirstName)),
		FamilyName: strings.TrimSpace(utils.Value(p.LastName)),
		Patronymic: strings.TrimSpace(utils.Value(p.MiddleName)),
		BirthDate:  utils.Value(p.BirthDate),
		NationalID: utils.Value(p.Snils),
		Email:      utils.Value(p.Email),
		Phone:      utils.Value(p.Mobile),
	}, nil
}
