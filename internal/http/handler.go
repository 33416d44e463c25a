package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/signchain/signchain/internal/http/middleware"
	"github.com/signchain/signchain/internal/model"
	"github.com/signchain/signchain/internal/service"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Handler struct {
	wallets   *service.WalletService
	contracts *service.ContractService
	documents *service.DocumentService
	anchors   *service.AnchorService
	log       zerolog.Logger
}

func NewHandler(
	wallets *service.WalletService,
	contracts *service.ContractService,
	documents *service.DocumentService,
	anchors *service.AnchorService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		wallets:   wallets,
		contracts: contracts,
		documents: documents,
		anchors:   anchors,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware, generateLimit gin.HandlerFunc) {
	api := router.Group("/api")
	api.POST("/wallet/connect", h.connectWallet)

	protected := api.Group("/")
	protected.Use(authMiddleware)
	protected.GET("/wallet", h.currentWallet)
	protected.POST("/contracts/generate", generateLimit, h.generateContract)
	protected.POST("/contracts/pdf", h.renderPDF)
	protected.POST("/contracts/publish", h.publishContract)
	protected.POST("/storage/upload", h.uploadFile)
	protected.POST("/ledger/transactions", h.prepareTransaction)
	protected.POST("/ledger/anchor", h.anchorDocument)
	protected.GET("/anchors", h.listAnchors)
	protected.GET("/anchors/export", h.exportAnchors)
	protected.GET("/anchors/:id", h.getAnchor)
}

type connectWalletRequest struct {
	WalletType string `json:"wallet_type" binding:"required"`
	Address    string `json:"address"`
}

func (h *Handler) connectWallet(c *gin.Context) {
	var req connectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.wallets.Connect(c.Request.Context(), service.ConnectWalletInput{
		WalletType: req.WalletType,
		Address:    req.Address,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"address":     result.Session.Address,
		"wallet_type": result.Session.WalletType,
		"balance":     result.Session.Balance,
		"token":       result.Token,
		"expires_at":  result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) currentWallet(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":     principal.Address,
		"wallet_type": principal.WalletType,
		"ledger_mode": h.anchors.Mode(),
	})
}

type partyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type generateContractRequest struct {
	Prompt      string             `json:"prompt" binding:"required"`
	Parties     []partyRequest     `json:"parties"`
	Country     string             `json:"country"`
	Currency    string             `json:"currency"`
	Deadline    string             `json:"deadline"`
	Termination model.NoticePeriod `json:"termination"`
}

func (h *Handler) generateContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req generateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var deadline time.Time
	if strings.TrimSpace(req.Deadline) != "" {
		parsed, err := parseDate(req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline"})
			return
		}
		deadline = parsed
	}

	parties := make([]model.Party, 0, len(req.Parties))
	for _, p := range req.Parties {
		parties = append(parties, model.Party{Name: p.Name, Address: p.Address})
	}

	result, err := h.contracts.Generate(c.Request.Context(), service.GenerateContractInput{
		Request: model.ContractGenerationRequest{
			Prompt:      req.Prompt,
			Parties:     parties,
			Country:     req.Country,
			Currency:    req.Currency,
			Deadline:    deadline,
			Termination: req.Termination,
		},
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("X-Recovery-Source", result.Source)
	c.JSON(http.StatusOK, result.Contract)
}

type documentRequest struct {
	Contract string `json:"contract" binding:"required"`
	Title    string `json:"title"`
}

func (h *Handler) renderPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.documents.Render(c.Request.Context(), service.RenderDocumentInput{
		Contract:  req.Contract,
		Title:     req.Title,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Header("X-Page-Count", strconv.Itoa(result.Pages))
	c.Data(http.StatusOK, contentTypePDF, result.Content)
}

func (h *Handler) publishContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req documentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.documents.Publish(c.Request.Context(), service.RenderDocumentInput{
		Contract:  req.Contract,
		Title:     req.Title,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cid":       result.Object.CID,
		"uri":       result.Object.URI,
		"file_name": result.FileName,
		"title":     result.Title,
		"pages":     result.Pages,
	})
}

func (h *Handler) uploadFile(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file could not be read"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, service.MaxUploadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file could not be read"})
		return
	}

	object, err := h.documents.Upload(c.Request.Context(), service.UploadFileInput{
		FileName:  header.Filename,
		Content:   content,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cid": object.CID, "uri": object.URI})
}

type prepareTransactionRequest struct {
	CID string `json:"cid" binding:"required"`
	URI string `json:"uri"`
}

func (h *Handler) prepareTransaction(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req prepareTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prepared, err := h.anchors.PrepareTransaction(c.Request.Context(), service.PrepareTransactionInput{
		CID:       req.CID,
		URI:       req.URI,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tx_id":       prepared.TxID,
		"transaction": prepared.Transaction,
		"note":        prepared.Note,
		"ledger_mode": prepared.Mode,
	})
}

type anchorRequest struct {
	CID               string `json:"cid" binding:"required"`
	URI               string `json:"uri"`
	Title             string `json:"title"`
	FileName          string `json:"file_name"`
	SignedTransaction string `json:"signed_transaction"`
}

func (h *Handler) anchorDocument(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req anchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anchor, err := h.anchors.Anchor(c.Request.Context(), service.AnchorInput{
		CID:               req.CID,
		URI:               req.URI,
		Title:             req.Title,
		FileName:          req.FileName,
		SignedTransaction: req.SignedTransaction,
		Principal:         principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toAnchorResponse(*anchor))
}

func (h *Handler) listAnchors(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	anchors, err := h.anchors.List(c.Request.Context(), principal, limit)
	if err != nil {
		h.handleError(c, err)
		return
	}

	items := make([]anchorResponse, 0, len(anchors))
	for _, anchor := range anchors {
		items = append(items, toAnchorResponse(anchor))
	}
	c.JSON(http.StatusOK, gin.H{"anchors": items})
}

func (h *Handler) getAnchor(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	anchor, err := h.anchors.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAnchorResponse(*anchor))
}

func (h *Handler) exportAnchors(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	result, err := h.anchors.Export(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, result.Content)
}

type anchorResponse struct {
	ID            string `json:"id"`
	WalletAddress string `json:"wallet_address"`
	CID           string `json:"cid"`
	URI           string `json:"uri"`
	TxID          string `json:"tx_id"`
	Title         string `json:"title"`
	FileName      string `json:"file_name"`
	LedgerMode    string `json:"ledger_mode"`
	CreatedAt     string `json:"created_at"`
}

func toAnchorResponse(anchor model.Anchor) anchorResponse {
	return anchorResponse{
		ID:            anchor.ID.String(),
		WalletAddress: anchor.WalletAddress,
		CID:           anchor.CID,
		URI:           anchor.URI,
		TxID:          anchor.TxID,
		Title:         anchor.Title,
		FileName:      anchor.FileName,
		LedgerMode:    string(anchor.LedgerMode),
		CreatedAt:     anchor.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var stage *service.StageError
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSignatureRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &stage):
		status := http.StatusBadGateway
		if stage.Message == service.MessageRenderFailed {
			status = http.StatusInternalServerError
		}
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg(stage.Message)
		c.JSON(status, gin.H{"error": stage.Message})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})
	default:
		h.log.Error().Err(err).Str("request_id", middleware.GetRequestID(c)).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"02.01.2006",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised date %q", service.ErrInvalidInput, raw)
}
