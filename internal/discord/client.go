// Package discord exchanges an OAuth authorization code for an authenticated
// identity plus its guild role memberships. The gateway only consumes the
// resulting shape; everything Discord-specific stays in here.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"mediadrop/gateway/internal/config"
	"mediadrop/gateway/internal/domain"
)

const (
	defaultAPIBase  = "https://discord.com/api"
	defaultAuthURL  = "https://discord.com/api/oauth2/authorize"
	defaultTokenURL = "https://discord.com/api/oauth2/token"
)

// Scopes needed to read the user and their guild member roles.
var scopes = []string{"identify", "guilds", "guilds.members.read"}

var (
	// ErrNotGuildMember means the identity does not belong to the required
	// community at all.
	ErrNotGuildMember = errors.New("not a member of the required guild")
	// ErrMissingRole means the identity is a member but lacks the required role.
	ErrMissingRole = errors.New("missing required role")
)

// Client talks to Discord's OAuth and REST APIs.
type Client struct {
	oauth   *oauth2.Config
	guildID string
	roleID  string
	apiBase string
	httpc   *http.Client
}

// NewClient builds a Client from the identity-provider configuration.
func NewClient(cfg config.DiscordConfig) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  defaultAuthURL,
				TokenURL: defaultTokenURL,
			},
		},
		guildID: cfg.GuildID,
		roleID:  cfg.RoleID,
		apiBase: defaultAPIBase,
		httpc:   &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthCodeURL returns the Discord authorize URL to redirect the browser to.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "consent"))
}

type apiUser struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar"`
	Discriminator string `json:"discriminator"`
}

type apiGuildMember struct {
	Roles []string `json:"roles"`
}

// Authenticate runs the full exchange: code for token, token for identity,
// identity for guild roles. It fails with ErrNotGuildMember or ErrMissingRole
// when the community checks fail; any other error is a failed exchange.
func (c *Client) Authenticate(ctx context.Context, code string) (*domain.SessionUser, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpc)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	var user apiUser
	if err := c.get(ctx, token.AccessToken, "/users/@me", &user); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}

	var member apiGuildMember
	err = c.get(ctx, token.AccessToken, "/users/@me/guilds/"+c.guildID+"/member", &member)
	if err != nil {
		// Only a definitive rejection means the user is not a member.
		// Transient Discord failures (5xx, rate limits) must not read as one.
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusNotFound || se.code == http.StatusForbidden) {
			return nil, ErrNotGuildMember
		}
		return nil, fmt.Errorf("fetch guild member: %w", err)
	}

	su := &domain.SessionUser{
		ID:            user.ID,
		Username:      user.Username,
		Avatar:        user.Avatar,
		Discriminator: user.Discriminator,
		AccessToken:   token.AccessToken,
		Roles:         member.Roles,
	}
	if !su.HasRole(c.roleID) {
		return nil, ErrMissingRole
	}
	return su, nil
}

type statusError struct {
	code int
	path string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("discord API %s returned status %d", e.path, e.code)
}

func (c *Client) get(ctx context.Context, accessToken, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &statusError{code: resp.StatusCode, path: path}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
