package rest

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/api/middleware"
	apierrors "github.com/feral-file/nft-benefit-registry/internal/api/shared/errors"
	"github.com/feral-file/nft-benefit-registry/internal/domain"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
	"github.com/feral-file/nft-benefit-registry/internal/metadata"
	"github.com/feral-file/nft-benefit-registry/internal/registry"
	"github.com/feral-file/nft-benefit-registry/internal/store"
	"github.com/feral-file/nft-benefit-registry/internal/store/schema"
)

// maxLintBodySize caps metadata lint request bodies at 1MB
const maxLintBodySize = 1 << 20

// Handler defines the interface for REST API handlers
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// AttachTokenBenefit attaches a benefit to a single token
	// POST /api/v1/benefits/token
	AttachTokenBenefit(c *gin.Context)

	// AttachCollectionBenefit attaches a benefit to the whole collection
	// POST /api/v1/benefits/collection
	AttachCollectionBenefit(c *gin.Context)

	// UpdateBenefit replaces a benefit's metadata URI
	// PATCH /api/v1/benefits/:benefit_id
	UpdateBenefit(c *gin.Context)

	// RemoveBenefit removes a benefit
	// DELETE /api/v1/benefits/:benefit_id
	RemoveBenefit(c *gin.Context)

	// GetBenefitURI returns a benefit's metadata URI
	// GET /api/v1/benefits/:benefit_id/uri
	GetBenefitURI(c *gin.Context)

	// CheckAssigner reports whether a wallet is the benefit's assigner
	// GET /api/v1/benefits/:benefit_id/assigner?wallet=<address>
	CheckAssigner(c *gin.Context)

	// ListTokenBenefits returns the benefits attached to a token
	// GET /api/v1/tokens/:token_number/benefits
	ListTokenBenefits(c *gin.Context)

	// ListCollectionBenefits returns the collection-scoped benefits
	// GET /api/v1/collection/benefits
	ListCollectionBenefits(c *gin.Context)

	// GetCapabilities lists optional registry behaviors
	// GET /api/v1/capabilities
	GetCapabilities(c *gin.Context)

	// LintMetadataDocument runs the advisory metadata document lint
	// POST /api/v1/metadata/lint
	LintMetadataDocument(c *gin.Context)

	// CreateWebhookClient registers a webhook endpoint (requires API key)
	// POST /api/v1/webhooks/clients
	CreateWebhookClient(c *gin.Context)

	// DeactivateWebhookClient deactivates a webhook client (requires API key)
	// DELETE /api/v1/webhooks/clients/:client_id
	DeactivateWebhookClient(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	registry registry.Registry
	store    store.Store
	json     adapter.JSON
}

// NewHandler creates a new REST API handler
func NewHandler(reg registry.Registry, s store.Store, jsonAdapter adapter.JSON) Handler {
	return &handler{
		registry: reg,
		store:    s,
		json:     jsonAdapter,
	}
}

// requireCallerIsSubject rejects JWT-authenticated requests whose body names a
// caller other than the token subject. API key clients carry no subject; they
// are trusted backends acting on behalf of arbitrary wallets.
func requireCallerIsSubject(c *gin.Context, caller string) bool {
	subject := c.GetString(string(middleware.AUTH_SUBJECT_KEY))
	if subject == "" || domain.SameAddress(subject, caller) {
		return true
	}

	c.JSON(http.StatusForbidden, apierrors.NewForbiddenError(
		"Caller does not match authenticated subject"))
	return false
}

// AttachTokenBenefit attaches a benefit to a single token
func (h *handler) AttachTokenBenefit(c *gin.Context) {
	var req AttachTokenBenefitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if !requireCallerIsSubject(c, req.Caller) {
		return
	}

	benefit, err := h.registry.AttachTokenBenefit(
		c.Request.Context(), req.Caller, req.TokenNumber, req.BenefitID, req.MetadataURI, req.PaymentWei)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, benefit)
}

// AttachCollectionBenefit attaches a benefit to the whole collection
func (h *handler) AttachCollectionBenefit(c *gin.Context) {
	var req AttachCollectionBenefitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if !requireCallerIsSubject(c, req.Caller) {
		return
	}

	benefit, err := h.registry.AttachCollectionBenefit(
		c.Request.Context(), req.Caller, req.BenefitID, req.MetadataURI, req.PaymentWei)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, benefit)
}

// UpdateBenefit replaces a benefit's metadata URI
func (h *handler) UpdateBenefit(c *gin.Context) {
	benefitID := c.Param("benefit_id")

	var req UpdateBenefitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if !requireCallerIsSubject(c, req.Caller) {
		return
	}

	benefit, err := h.registry.UpdateBenefit(c.Request.Context(), req.Caller, benefitID, req.MetadataURI)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, benefit)
}

// RemoveBenefit removes a benefit
func (h *handler) RemoveBenefit(c *gin.Context) {
	benefitID := c.Param("benefit_id")

	var req RemoveBenefitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if !requireCallerIsSubject(c, req.Caller) {
		return
	}

	if err := h.registry.RemoveBenefit(c.Request.Context(), req.Caller, benefitID); err != nil {
		respondRegistryError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetBenefitURI returns a benefit's metadata URI
func (h *handler) GetBenefitURI(c *gin.Context) {
	benefitID := c.Param("benefit_id")

	uri, err := h.registry.BenefitURI(c.Request.Context(), benefitID)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, BenefitURIResponse{
		BenefitID:   benefitID,
		MetadataURI: uri,
	})
}

// CheckAssigner reports whether a wallet is the benefit's assigner
func (h *handler) CheckAssigner(c *gin.Context) {
	benefitID := c.Param("benefit_id")

	wallet := c.Query("wallet")
	if err := validateCaller(wallet); err != nil {
		respondBadRequest(c, "Invalid wallet address", err.Error())
		return
	}

	isAssigner, err := h.registry.IsBenefitAssigner(c.Request.Context(), wallet, benefitID)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssignerCheckResponse{
		BenefitID:  benefitID,
		Wallet:     domain.NormalizeAddress(wallet),
		IsAssigner: isAssigner,
	})
}

// ListTokenBenefits returns the benefits attached to a token
func (h *handler) ListTokenBenefits(c *gin.Context) {
	tokenNumber := c.Param("token_number")

	benefits, err := h.registry.TokenBenefits(c.Request.Context(), tokenNumber)
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, BenefitListResponse{Benefits: benefits})
}

// ListCollectionBenefits returns the collection-scoped benefits
func (h *handler) ListCollectionBenefits(c *gin.Context) {
	benefits, err := h.registry.CollectionBenefits(c.Request.Context())
	if err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, BenefitListResponse{Benefits: benefits})
}

// GetCapabilities lists supported registry behaviors. With ?supports=<name>
// it answers a single-capability probe instead.
func (h *handler) GetCapabilities(c *gin.Context) {
	if probe := c.Query("supports"); probe != "" {
		c.JSON(http.StatusOK, SupportsResponse{
			Capability: probe,
			Supported:  h.registry.Supports(registry.Capability(probe)),
		})
		return
	}

	caps := h.registry.Capabilities()
	names := make([]string, 0, len(caps))
	for _, cap := range caps {
		names = append(names, string(cap))
	}

	c.JSON(http.StatusOK, CapabilitiesResponse{Capabilities: names})
}

// LintMetadataDocument runs the advisory metadata document lint
func (h *handler) LintMetadataDocument(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxLintBodySize))
	if err != nil {
		respondBadRequest(c, "Failed to read request body")
		return
	}

	doc, issues, err := metadata.Lint(h.json, raw)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if issues == nil {
		issues = []metadata.Issue{}
	}

	c.JSON(http.StatusOK, gin.H{
		"document": doc,
		"issues":   issues,
	})
}

// CreateWebhookClient registers a webhook endpoint
func (h *handler) CreateWebhookClient(c *gin.Context) {
	var req CreateWebhookClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	filters, err := h.json.Marshal(req.EventFilters)
	if err != nil {
		respondInternalError(c, "Failed to encode event filters")
		return
	}

	client := &schema.WebhookClient{
		ID:          uuid.NewString(),
		URL:         req.WebhookURL,
		Secret:      uuid.NewString(),
		EventFilter: filters,
		Active:      true,
	}

	if err := h.store.CreateWebhookClient(c.Request.Context(), client); err != nil {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("url", req.WebhookURL))
		respondDatabaseError(c, "Failed to create webhook client")
		return
	}

	c.JSON(http.StatusCreated, CreateWebhookClientResponse{
		ClientID: client.ID,
		Secret:   client.Secret,
	})
}

// DeactivateWebhookClient deactivates a webhook client
func (h *handler) DeactivateWebhookClient(c *gin.Context) {
	clientID := c.Param("client_id")
	if _, err := uuid.Parse(clientID); err != nil {
		respondBadRequest(c, "Invalid client id")
		return
	}

	found, err := h.store.DeactivateWebhookClient(c.Request.Context(), clientID)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), err, zap.String("client_id", clientID))
		respondDatabaseError(c, "Failed to deactivate webhook client")
		return
	}
	if !found {
		respondNotFound(c, "Webhook client not found")
		return
	}

	c.Status(http.StatusNoContent)
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":  "ok",
		"service": "nft-benefit-registry",
	})
}
