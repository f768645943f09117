package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"settlement-service/internal/ledger"
	"settlement-service/internal/models"
	"settlement-service/internal/proof"
	"settlement-service/internal/repository"
	"settlement-service/internal/services"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// PolicyHandler exposes the policy lifecycle over HTTP. Business rejections
// (failed application or claim validation) are 200 responses carrying the
// decision; only infrastructure and sequencing failures map to error codes.
type PolicyHandler struct {
	lifecycle *services.LifecycleService
	wallet    ledger.Ledger
	proofs    *proof.Store
}

func NewPolicyHandler(lifecycle *services.LifecycleService, wallet ledger.Ledger, proofs *proof.Store) *PolicyHandler {
	return &PolicyHandler{
		lifecycle: lifecycle,
		wallet:    wallet,
		proofs:    proofs,
	}
}

func (h *PolicyHandler) Register(app *fiber.App) {
	api := app.Group("settlement/api/v1")

	policyGroup := api.Group("/policies")
	policyGroup.Post("/apply", h.ApplyForPolicy)               // POST /policies/apply
	policyGroup.Get("/:id", h.GetPolicy)                       // GET  /policies/:id
	policyGroup.Post("/:id/proof", h.UploadProofArtifact)      // POST /policies/:id/proof
	policyGroup.Post("/:id/claims", h.FileClaim)               // POST /policies/:id/claims
	policyGroup.Post("/:id/payout", h.ProcessPayout)           // POST /policies/:id/payout
	api.Get("/holders/:holder_id/policies", h.ListByHolder)    // GET  /holders/:holder_id/policies
	api.Get("/holders/:holder_id/balance", h.GetHolderBalance) // GET  /holders/:holder_id/balance
}

// ApplyForPolicy validates a coverage application and activates the policy
// when approved.
func (h *PolicyHandler) ApplyForPolicy(c fiber.Ctx) error {
	var req models.ApplicationRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_BODY", "Invalid application request body"))
	}
	if req.HazardID == "" || req.HolderID == "" {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("MISSING_FIELDS", "hazard_id and holder_id are required"))
	}

	policy, decision, err := h.lifecycle.ApplyForPolicy(c.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUnknownHazard) {
			return c.Status(http.StatusBadRequest).JSON(
				models.CreateErrorResponse("UNKNOWN_HAZARD", "No such hazard in the catalog"))
		}
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			return c.Status(http.StatusPaymentRequired).JSON(
				models.CreateErrorResponse("INSUFFICIENT_FUNDS", "Premium debit failed: insufficient funds"))
		}
		if errors.Is(err, ledger.ErrUnavailable) {
			return c.Status(http.StatusServiceUnavailable).JSON(
				models.CreateErrorResponse("LEDGER_UNAVAILABLE", "Wallet ledger is unavailable"))
		}
		slog.Error("Failed to process application", "hazard_id", req.HazardID, "holder_id", req.HolderID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("APPLICATION_FAILED", "Failed to process application"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(fiber.Map{
		"policy":   policy,
		"decision": decision,
	}))
}

// GetPolicy returns one policy instance with its current claim, if any.
func (h *PolicyHandler) GetPolicy(c fiber.Ctx) error {
	policyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	policy, err := h.lifecycle.GetPolicy(c.Context(), policyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				models.CreateErrorResponse("NOT_FOUND", "Policy not found"))
		}
		slog.Error("Failed to get policy", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve policy"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(policy))
}

// UploadProofArtifact stores one proof-of-loss artifact for the policy and
// returns the updated proof descriptor. Artifact contents are never inspected.
func (h *PolicyHandler) UploadProofArtifact(c fiber.Ctx) error {
	if h.proofs == nil {
		return c.Status(http.StatusServiceUnavailable).JSON(
			models.CreateErrorResponse("PROOF_STORE_UNAVAILABLE", "Artifact storage is not configured"))
	}

	policyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}
	if _, err := h.lifecycle.GetPolicy(c.Context(), policyID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				models.CreateErrorResponse("NOT_FOUND", "Policy not found"))
		}
		slog.Error("Failed to get policy", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to retrieve policy"))
	}

	fileHeader, err := c.FormFile("artifact")
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("MISSING_ARTIFACT", "Multipart field 'artifact' is required"))
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_ARTIFACT", "Failed to read uploaded artifact"))
	}
	defer file.Close()

	descriptor, err := h.proofs.Upload(c.Context(), policyID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		slog.Error("Failed to store proof artifact", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("UPLOAD_FAILED", "Failed to store proof artifact"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(descriptor))
}

// FileClaim files a claim against the policy. Proof metadata comes from the
// artifact store when configured, otherwise from the declared request body.
func (h *PolicyHandler) FileClaim(c fiber.Ctx) error {
	policyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	var req models.FileClaimRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().Body(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(
				models.CreateErrorResponse("INVALID_BODY", "Invalid claim request body"))
		}
	}

	descriptor := models.ProofDescriptor{
		Supplied:      req.ProofSupplied,
		ArtifactCount: req.ArtifactCount,
		TotalBytes:    req.TotalProofSize,
	}
	if h.proofs != nil {
		stored, err := h.proofs.Describe(c.Context(), policyID)
		if err != nil {
			slog.Warn("Failed to list proof artifacts, using declared proof metadata", "policy_id", policyID, "error", err)
		} else if stored.Supplied {
			descriptor = stored
		}
	}

	policy, decision, err := h.lifecycle.FileClaim(c.Context(), policyID, descriptor)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				models.CreateErrorResponse("NOT_FOUND", "Policy not found"))
		}
		if errors.Is(err, services.ErrIllegalTransition) {
			return c.Status(http.StatusConflict).JSON(
				models.CreateErrorResponse("ILLEGAL_TRANSITION", "Policy state does not allow filing a claim"))
		}
		slog.Error("Failed to file claim", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("CLAIM_FAILED", "Failed to file claim"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(fiber.Map{
		"policy":   policy,
		"decision": decision,
	}))
}

// ProcessPayout credits the approved payout. Repeating the call after the
// payout has settled returns the same policy without a second credit.
func (h *PolicyHandler) ProcessPayout(c fiber.Ctx) error {
	policyID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("INVALID_UUID", "Invalid policy ID format"))
	}

	policy, err := h.lifecycle.ProcessPayout(c.Context(), policyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(http.StatusNotFound).JSON(
				models.CreateErrorResponse("NOT_FOUND", "Policy not found"))
		}
		if errors.Is(err, services.ErrIllegalTransition) {
			return c.Status(http.StatusConflict).JSON(
				models.CreateErrorResponse("ILLEGAL_TRANSITION", "Policy has no approved claim awaiting payout"))
		}
		if errors.Is(err, ledger.ErrUnavailable) {
			return c.Status(http.StatusServiceUnavailable).JSON(
				models.CreateErrorResponse("LEDGER_UNAVAILABLE", "Wallet ledger is unavailable"))
		}
		slog.Error("Failed to process payout", "policy_id", policyID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("PAYOUT_FAILED", "Failed to process payout"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(policy))
}

// ListByHolder returns all policy instances owned by one holder.
func (h *PolicyHandler) ListByHolder(c fiber.Ctx) error {
	holderID := c.Params("holder_id")
	if holderID == "" {
		return c.Status(http.StatusBadRequest).JSON(
			models.CreateErrorResponse("MISSING_FIELDS", "holder_id is required"))
	}

	policies, err := h.lifecycle.ListPoliciesByHolder(c.Context(), holderID)
	if err != nil {
		slog.Error("Failed to list policies", "holder_id", holderID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to list policies"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(fiber.Map{
		"policies":  policies,
		"count":     len(policies),
		"holder_id": holderID,
	}))
}

// GetHolderBalance reads the holder's current wallet balance.
func (h *PolicyHandler) GetHolderBalance(c fiber.Ctx) error {
	holderID := c.Params("holder_id")
	balance, err := h.wallet.BalanceOf(c.Context(), holderID)
	if err != nil {
		if errors.Is(err, ledger.ErrUnavailable) {
			return c.Status(http.StatusServiceUnavailable).JSON(
				models.CreateErrorResponse("LEDGER_UNAVAILABLE", "Wallet ledger is unavailable"))
		}
		slog.Error("Failed to read balance", "holder_id", holderID, "error", err)
		return c.Status(http.StatusInternalServerError).JSON(
			models.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to read balance"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(fiber.Map{
		"holder_id": holderID,
		"balance":   balance,
	}))
}
