package gmail

import (
	"context"
	"net/http"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/hoadesk/inbox/config"
	"github.com/hoadesk/inbox/dto"
	"github.com/hoadesk/inbox/interfaces"
	inboxerrors "github.com/hoadesk/inbox/internal/errors"
	"github.com/hoadesk/inbox/internal/tracing"
)

const requestTimeout = 30 * time.Second

type gmailService struct {
	oauth      *oauth2.Config
	endpoint   string
	httpClient *http.Client
}

func NewGmailService(cfg *config.GoogleConfig) interfaces.GmailService {
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}

	return &gmailService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				gmailapi.GmailReadonlyScope,
				gmailapi.GmailSendScope,
				gmailapi.GmailComposeScope,
			},
			Endpoint: endpoint,
		},
		endpoint:   cfg.GmailEndpoint,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// AuthCodeURL asks for offline access with forced consent so Google always returns a refresh token.
func (s *gmailService) AuthCodeURL(state string) string {
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (s *gmailService) Exchange(ctx context.Context, code string) (*dto.OAuthToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailService.Exchange")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)

	token, err := s.oauth.Exchange(s.oauthContext(ctx), code)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to exchange oauth code")
	}
	return toOAuthToken(token), nil
}

func (s *gmailService) Refresh(ctx context.Context, refreshToken string) (*dto.OAuthToken, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "GmailService.Refresh")
	defer span.Finish()
	tracing.TagComponentExternalClient(span)

	if refreshToken == "" {
		tracing.TraceErr(span, inboxerrors.ErrNoRefreshToken)
		return nil, inboxerrors.ErrNoRefreshToken
	}

	src := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(inboxerrors.ErrTokenRefresh, err.Error())
	}
	return toOAuthToken(token), nil
}

// Mailbox opens a Gmail client bound to an already valid access token.
func (s *gmailService) Mailbox(ctx context.Context, accessToken string) (interfaces.GmailMailbox, error) {
	if accessToken == "" {
		return nil, inboxerrors.ErrGmailNotConnected
	}

	client := oauth2.NewClient(s.oauthContext(ctx), oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}

	svc, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gmail service")
	}
	return &mailbox{service: svc}, nil
}

func (s *gmailService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

func toOAuthToken(token *oauth2.Token) *dto.OAuthToken {
	return &dto.OAuthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry.UTC(),
	}
}
