package payment

import (
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/hexpanel/usdt-reconciler/internal/intake"
	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/reconciler"
	"github.com/hexpanel/usdt-reconciler/internal/settlement"
	"github.com/hexpanel/usdt-reconciler/internal/store"
	"github.com/hexpanel/usdt-reconciler/internal/store/intent"
	"github.com/hexpanel/usdt-reconciler/internal/store/walletcache"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
	"github.com/hexpanel/usdt-reconciler/internal/view"
	"github.com/hexpanel/usdt-reconciler/internal/walletissuer"
)

type CreatePaymentRequest struct {
	TradeNo string  `json:"trade_no" binding:"required"`
	UserID  int64   `json:"user_id" binding:"required"`
	Email   string  `json:"email" binding:"required,email"`
	Amount  float64 `json:"amount" binding:"required,gt=0"`
	Network string  `json:"network"`
}

type CreatePaymentResponse struct {
	TradeNo       string  `json:"trade_no"`
	WalletAddress string  `json:"wallet_address"`
	Amount        float64 `json:"usdt_amount"`
	Network       string  `json:"network"`
	ExpiresAt     int64   `json:"expires_at"`
	QRContent     string  `json:"qr_content"`
}

type WalletAddressRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}

type PaymentStatusResponse struct {
	Status    model.IntentStatus `json:"status"`
	ExpiresAt int64              `json:"expires_at"`
	Amount    float64            `json:"amount"`
	Address   string             `json:"address"`
	TxHash    string             `json:"tx_hash,omitempty"`
}

type ConfirmPaymentRequest struct {
	TxHash string `json:"tx_hash"`
}

// chainIDs for the EIP-681 QR payload. Tron wallets do not speak EIP-681, so
// networks missing here fall back to the bare address.
var chainIDs = map[model.Network]int{
	model.NetworkBsc:   56,
	model.NetworkErc20: 1,
}

type handler struct {
	appConfig  *config.AppConfig
	logger     *logger.Logger
	db         *gorm.DB
	store      *store.Store
	issuer     walletissuer.IService
	reconciler reconciler.IReconciler
	intake     intake.IIntake
	settler    settlement.IService
}

func New(
	appConfig *config.AppConfig,
	logger *logger.Logger,
	db *gorm.DB,
	s *store.Store,
	issuer walletissuer.IService,
	rec reconciler.IReconciler,
	ingest intake.IIntake,
	settler settlement.IService,
) IHandler {
	return &handler{
		appConfig:  appConfig,
		logger:     logger,
		db:         db,
		store:      s,
		issuer:     issuer,
		reconciler: rec,
		intake:     ingest,
		settler:    settler,
	}
}

func (h *handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[CreatePayment][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, "invalid request"))
		return
	}

	network := model.Network(req.Network)
	if req.Network == "" {
		network = model.NetworkBsc
	}
	netCfg, ok := h.appConfig.Networks[string(network)]
	if !ok {
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil,
			fmt.Errorf("unsupported network %q", req.Network), "invalid request"))
		return
	}

	// Re-issuing the same trade_no returns the original intent unchanged.
	existing, err := h.store.Intent.Get(c.Request.Context(), req.TradeNo)
	if err == nil {
		c.JSON(http.StatusOK, view.CreateResponse(h.toCreateResponse(existing, netCfg), nil, ""))
		return
	}
	if !errors.Is(err, intent.ErrNotFound) {
		h.logger.Error("[CreatePayment][Intent.Get]", map[string]string{
			"trade_no": req.TradeNo,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to create payment"))
		return
	}

	address, err := h.resolveAddress(c, req.UserID, req.Email)
	if err != nil {
		c.JSON(http.StatusBadGateway, view.CreateResponse[any](nil, err, "failed to obtain deposit address"))
		return
	}

	if _, err := h.store.Order.GetByTradeNo(h.db, req.TradeNo); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			h.logger.Error("[CreatePayment][Order.GetByTradeNo]", map[string]string{
				"trade_no": req.TradeNo,
				"error":    err.Error(),
			})
			c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to create payment"))
			return
		}
		if _, err := h.store.Order.Create(h.db, &model.Order{
			TradeNo:     req.TradeNo,
			UserID:      req.UserID,
			TotalAmount: int64(req.Amount*100 + 0.5),
			Status:      model.OrderStatusPending,
		}); err != nil {
			h.logger.Error("[CreatePayment][Order.Create]", map[string]string{
				"trade_no": req.TradeNo,
				"error":    err.Error(),
			})
			c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to create payment"))
			return
		}
	}

	now := time.Now()
	paymentIntent := &model.PaymentIntent{
		TradeNo:       req.TradeNo,
		UserID:        req.UserID,
		WalletAddress: address,
		Amount:        req.Amount,
		Network:       network,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(h.appConfig.Payment.Timeout).Unix(),
		Status:        model.IntentStatusPending,
	}
	if err := h.store.Intent.Create(c.Request.Context(), paymentIntent); err != nil {
		h.logger.Error("[CreatePayment][Intent.Create]", map[string]string{
			"trade_no": req.TradeNo,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to create payment"))
		return
	}

	h.logger.Info(fmt.Sprintf("[CreatePayment] intent %s created for user %d", req.TradeNo, req.UserID))
	c.JSON(http.StatusOK, view.CreateResponse(h.toCreateResponse(paymentIntent, netCfg), nil, ""))
}

func (h *handler) GetWalletAddress(c *gin.Context) {
	var req WalletAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("[GetWalletAddress][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, "invalid request"))
		return
	}

	address, err := h.resolveAddress(c, req.UserID, req.Email)
	if err != nil {
		c.JSON(http.StatusBadGateway, view.CreateResponse[any](nil, err, "failed to obtain deposit address"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse(gin.H{"address": address}, nil, ""))
}

func (h *handler) GetPaymentStatus(c *gin.Context) {
	tradeNo := c.Param("trade_no")

	paymentIntent, err := h.store.Intent.Get(c.Request.Context(), tradeNo)
	if err != nil {
		if errors.Is(err, intent.ErrNotFound) {
			c.JSON(http.StatusNotFound, view.CreateResponse[any](nil, err, "payment not found"))
			return
		}
		h.logger.Error("[GetPaymentStatus][Intent.Get]", map[string]string{
			"trade_no": tradeNo,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to get payment status"))
		return
	}

	status := paymentIntent.Status
	// The sweep runs on the next cycle; the UI should not show a stale
	// pending in the meantime.
	if status == model.IntentStatusPending && paymentIntent.ExpiredAt(time.Now()) {
		status = model.IntentStatusExpired
	}

	c.JSON(http.StatusOK, view.CreateResponse(PaymentStatusResponse{
		Status:    status,
		ExpiresAt: paymentIntent.ExpiresAt,
		Amount:    paymentIntent.Amount,
		Address:   paymentIntent.WalletAddress,
		TxHash:    paymentIntent.TxHash,
	}, nil, ""))
}

func (h *handler) TriggerCheck(c *gin.Context) {
	result, err := h.reconciler.RunCycle(c.Request.Context())
	if err != nil {
		h.logger.Error("[TriggerCheck][RunCycle]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "reconciliation failed"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse(result, nil, ""))
}

func (h *handler) Notify(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Error("[Notify][ShouldBindJSON]", map[string]string{
			"error": err.Error(),
		})
		c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, "invalid request"))
		return
	}

	req, err := h.intake.Ingest(c.Request.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, intake.ErrInvalidPayload):
			c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, "invalid notification"))
		case errors.Is(err, intake.ErrNoMatchingIntent):
			c.JSON(http.StatusNotFound, view.CreateResponse[any](nil, err, "no matching payment"))
		default:
			h.logger.Error("[Notify][Ingest]", map[string]string{
				"error": err.Error(),
			})
			c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to process notification"))
		}
		return
	}

	if err := h.settler.Settle(c.Request.Context(), *req); err != nil {
		h.logger.Error("[Notify][Settle]", map[string]string{
			"trade_no": req.TradeNo,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to settle payment"))
		return
	}

	c.JSON(http.StatusOK, view.CreateResponse(gin.H{"trade_no": req.TradeNo}, nil, "payment settled"))
}

func (h *handler) ConfirmPayment(c *gin.Context) {
	tradeNo := c.Param("trade_no")

	// body is optional for manual confirmation
	var req ConfirmPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, view.CreateResponse[any](nil, err, "invalid request"))
			return
		}
	}

	if _, err := h.store.Intent.Get(c.Request.Context(), tradeNo); err != nil {
		if errors.Is(err, intent.ErrNotFound) {
			c.JSON(http.StatusNotFound, view.CreateResponse[any](nil, err, "payment not found"))
			return
		}
		h.logger.Error("[ConfirmPayment][Intent.Get]", map[string]string{
			"trade_no": tradeNo,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to confirm payment"))
		return
	}

	txHash := req.TxHash
	if txHash == "" {
		txHash = "manual:" + tradeNo
	}

	if err := h.settler.Settle(c.Request.Context(), settlement.Request{TradeNo: tradeNo, TxHash: txHash}); err != nil {
		h.logger.Error("[ConfirmPayment][Settle]", map[string]string{
			"trade_no": tradeNo,
			"error":    err.Error(),
		})
		c.JSON(http.StatusInternalServerError, view.CreateResponse[any](nil, err, "failed to confirm payment"))
		return
	}

	h.logger.Info(fmt.Sprintf("[ConfirmPayment] order %s confirmed manually", tradeNo))
	c.JSON(http.StatusOK, view.CreateResponse(gin.H{"trade_no": tradeNo}, nil, "payment settled"))
}

// resolveAddress serves the address from cache, asking the issuer only for
// users seen for the first time. Issued addresses are kept forever.
func (h *handler) resolveAddress(c *gin.Context, userID int64, email string) (string, error) {
	ctx := c.Request.Context()

	address, err := h.store.WalletCache.Get(ctx, userID)
	if err == nil {
		return address, nil
	}
	if !errors.Is(err, walletcache.ErrNotFound) {
		h.logger.Error("[resolveAddress][WalletCache.Get]", map[string]string{
			"error": err.Error(),
		})
		return "", err
	}

	address, err = h.issuer.RequestAddress(ctx, userID, email)
	if err != nil {
		h.logger.Error("[resolveAddress][RequestAddress]", map[string]string{
			"error": err.Error(),
		})
		return "", err
	}
	if !common.IsHexAddress(address) {
		h.logger.Error("[resolveAddress] issuer returned malformed address", map[string]string{
			"address": address,
		})
		return "", errors.Wrap(walletissuer.ErrIssuerUnavailable, "malformed address")
	}

	if err := h.store.WalletCache.Set(ctx, userID, address); err != nil {
		h.logger.Error("[resolveAddress][WalletCache.Set]", map[string]string{
			"error": err.Error(),
		})
		return "", err
	}

	return address, nil
}

func (h *handler) toCreateResponse(paymentIntent *model.PaymentIntent, netCfg config.NetworkConfig) CreatePaymentResponse {
	return CreatePaymentResponse{
		TradeNo:       paymentIntent.TradeNo,
		WalletAddress: paymentIntent.WalletAddress,
		Amount:        paymentIntent.Amount,
		Network:       string(paymentIntent.Network),
		ExpiresAt:     paymentIntent.ExpiresAt,
		QRContent:     qrContent(paymentIntent, netCfg),
	}
}

// qrContent renders the EIP-681 token-transfer URI understood by EVM wallet
// apps. The amount is scaled to the token's raw units.
func qrContent(paymentIntent *model.PaymentIntent, netCfg config.NetworkConfig) string {
	chainID, ok := chainIDs[paymentIntent.Network]
	if !ok {
		return paymentIntent.WalletAddress
	}

	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(netCfg.TokenDecimals)), nil))
	raw := new(big.Float).Mul(big.NewFloat(paymentIntent.Amount), scale)
	rawInt, _ := raw.Int(nil)

	return fmt.Sprintf("ethereum:%s@%d/transfer?address=%s&uint256=%s",
		netCfg.TokenContract, chainID, paymentIntent.WalletAddress, rawInt.String())
}
