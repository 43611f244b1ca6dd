package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

const outboundTimeout = 10 * time.Second

// tokenTxResponse is the Etherscan-family account/tokentx reply shape, shared
// by BscScan, Etherscan and TronScan's compatibility endpoint.
type tokenTxResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Result  []tokenTxRow `json:"result"`
}

type tokenTxRow struct {
	Hash      string `json:"hash"`
	To        string `json:"to"`
	Value     string `json:"value"`
	TimeStamp string `json:"timeStamp"`
}

type scanFeed struct {
	networks map[string]config.NetworkConfig
	client   *resty.Client
	logger   *logger.Logger
}

// New builds a feed over the block-explorer HTTP APIs configured per network.
func New(appConfig *config.AppConfig, logger *logger.Logger) ITransactionFeed {
	return &scanFeed{
		networks: appConfig.Networks,
		client:   resty.New().SetTimeout(outboundTimeout),
		logger:   logger,
	}
}

func (f *scanFeed) Fetch(ctx context.Context, network model.Network, address string, from time.Time) ([]model.TransferEvent, error) {
	netCfg, ok := f.networks[string(network)]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNetwork, "network %q", network)
	}

	var body tokenTxResponse
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"module":          "account",
			"action":          "tokentx",
			"contractaddress": netCfg.TokenContract,
			"address":         address,
			"startblock":      "0",
			"endblock":        "999999999",
			"sort":            "desc",
			"apikey":          netCfg.ScanAPIKey,
		}).
		SetResult(&body).
		ForceContentType("application/json").
		Get(netCfg.ScanAPIURL)
	if err != nil {
		f.logger.Error("[Fetch][client.Get]", map[string]string{
			"network": string(network),
			"address": address,
			"error":   err.Error(),
		})
		return nil, errors.Wrap(ErrFeedUnavailable, err.Error())
	}

	if resp.StatusCode() != 200 {
		f.logger.Error("[Fetch] unexpected status code", map[string]string{
			"network":    string(network),
			"address":    address,
			"statusCode": strconv.Itoa(resp.StatusCode()),
		})
		return nil, errors.Wrapf(ErrFeedUnavailable, "status code: %d", resp.StatusCode())
	}

	// Explorers answer status "0" with an empty result for addresses without
	// transfers; that is not a failure.
	if body.Status != "1" {
		if len(body.Result) == 0 {
			return nil, nil
		}
		return nil, errors.Wrapf(ErrFeedUnavailable, "api status %q: %s", body.Status, body.Message)
	}

	events := make([]model.TransferEvent, 0, len(body.Result))
	for _, row := range body.Result {
		event, ok := f.normalize(row, netCfg.TokenDecimals)
		if !ok {
			f.logger.Error("[Fetch] skipping malformed transfer row", map[string]string{
				"network": string(network),
				"hash":    row.Hash,
				"value":   row.Value,
			})
			continue
		}
		if event.Timestamp < from.Unix() {
			continue
		}
		events = append(events, event)
	}

	f.logger.Debug(fmt.Sprintf("[Fetch] %d transfers for %s", len(events), address), map[string]string{
		"network": string(network),
	})

	return events, nil
}

func (f *scanFeed) normalize(row tokenTxRow, decimals int) (model.TransferEvent, bool) {
	ts, err := strconv.ParseInt(strings.TrimSpace(row.TimeStamp), 10, 64)
	if err != nil {
		return model.TransferEvent{}, false
	}

	raw := model.TokenAmount{Value: row.Value, Decimals: decimals}
	amount, ok := raw.ToFloat()
	if !ok {
		return model.TransferEvent{}, false
	}

	return model.TransferEvent{
		Hash:      row.Hash,
		ToAddress: row.To,
		Amount:    amount,
		Timestamp: ts,
	}, true
}
