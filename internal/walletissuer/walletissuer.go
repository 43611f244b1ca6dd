package walletissuer

import (
	"context"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

const outboundTimeout = 10 * time.Second

// ErrIssuerUnavailable means the wallet issuer could not hand out an address.
// Callers treat it as transient and surface a retry to the payer.
var ErrIssuerUnavailable = errors.New("wallet issuer unavailable")

// IService hands out deposit addresses. Each user keeps the same address for
// life, so callers cache the result and only come back for new users.
type IService interface {
	RequestAddress(ctx context.Context, userID int64, email string) (string, error)
}

type issueRequest struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	CallbackURL string `json:"callback_url"`
}

type issueResponse struct {
	Address string `json:"address"`
	Message string `json:"message"`
}

type service struct {
	appConfig *config.AppConfig
	client    *resty.Client
	logger    *logger.Logger
}

func New(appConfig *config.AppConfig, logger *logger.Logger) IService {
	return &service{
		appConfig: appConfig,
		client:    resty.New().SetTimeout(outboundTimeout),
		logger:    logger,
	}
}

func (s *service) RequestAddress(ctx context.Context, userID int64, email string) (string, error) {
	var body issueResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.appConfig.Issuer.ApiKey).
		SetBody(issueRequest{
			UserID:      strconv.FormatInt(userID, 10),
			Email:       email,
			CallbackURL: s.appConfig.Issuer.CallbackURL,
		}).
		SetResult(&body).
		ForceContentType("application/json").
		Post(s.appConfig.Issuer.ApiURL)
	if err != nil {
		s.logger.Error("[RequestAddress][client.Post]", map[string]string{
			"userID": strconv.FormatInt(userID, 10),
			"error":  err.Error(),
		})
		return "", errors.Wrap(ErrIssuerUnavailable, err.Error())
	}

	if resp.StatusCode() != 200 {
		s.logger.Error("[RequestAddress] unexpected status code", map[string]string{
			"userID":     strconv.FormatInt(userID, 10),
			"statusCode": strconv.Itoa(resp.StatusCode()),
		})
		return "", errors.Wrapf(ErrIssuerUnavailable, "status code: %d", resp.StatusCode())
	}

	if body.Address == "" {
		s.logger.Error("[RequestAddress] empty address in response", map[string]string{
			"userID":  strconv.FormatInt(userID, 10),
			"message": body.Message,
		})
		return "", errors.Wrap(ErrIssuerUnavailable, "empty address")
	}

	return body.Address, nil
}
