package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"settlement-service/internal/catalog"
	"settlement-service/internal/models"
	"settlement-service/internal/oracle"
	"settlement-service/internal/repository"

	"github.com/gofiber/fiber/v3"
)

// OracleHandler exposes the hazard catalog and the simulated sensor network's
// published state. Consensus reads prefer the in-process board and fall back
// to the Redis mirror when the board has no snapshot yet.
type OracleHandler struct {
	catalog *catalog.Catalog
	board   *oracle.Board
	cache   *repository.SnapshotCache
}

func NewOracleHandler(cat *catalog.Catalog, board *oracle.Board, cache *repository.SnapshotCache) *OracleHandler {
	return &OracleHandler{
		catalog: cat,
		board:   board,
		cache:   cache,
	}
}

func (h *OracleHandler) Register(app *fiber.App) {
	api := app.Group("settlement/api/v1")

	hazardGroup := api.Group("/hazards")
	hazardGroup.Get("/", h.ListHazards)                     // GET /hazards
	hazardGroup.Get("/:id", h.GetHazard)                    // GET /hazards/:id
	hazardGroup.Get("/:id/consensus", h.GetConsensus)       // GET /hazards/:id/consensus
	hazardGroup.Get("/:id/readings", h.GetLatestReadings)   // GET /hazards/:id/readings
}

// ListHazards returns every insurable hazard with its trigger parameters.
func (h *OracleHandler) ListHazards(c fiber.Ctx) error {
	hazards := h.catalog.All()
	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(fiber.Map{
		"hazards": hazards,
		"count":   len(hazards),
	}))
}

// GetHazard returns one hazard config.
func (h *OracleHandler) GetHazard(c fiber.Ctx) error {
	hazard := h.catalog.Get(c.Params("id"))
	if hazard == nil {
		return c.Status(http.StatusNotFound).JSON(
			models.CreateErrorResponse("NOT_FOUND", "Hazard not found"))
	}
	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(hazard))
}

// GetConsensus returns the latest consensus snapshot for a hazard.
func (h *OracleHandler) GetConsensus(c fiber.Ctx) error {
	hazardID := c.Params("id")
	if h.catalog.Get(hazardID) == nil {
		return c.Status(http.StatusNotFound).JSON(
			models.CreateErrorResponse("NOT_FOUND", "Hazard not found"))
	}

	snapshot, err := h.board.Snapshot(hazardID)
	if err != nil {
		if !errors.Is(err, oracle.ErrInsufficientReadings) {
			slog.Error("Failed to read consensus snapshot", "hazard_id", hazardID, "error", err)
			return c.Status(http.StatusInternalServerError).JSON(
				models.CreateErrorResponse("RETRIEVAL_FAILED", "Failed to read consensus snapshot"))
		}
		if h.cache != nil {
			if cached, cacheErr := h.cache.Get(c.Context(), hazardID); cacheErr == nil {
				return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(cached))
			}
		}
		return c.Status(http.StatusNotFound).JSON(
			models.CreateErrorResponse("NO_CONSENSUS", "No consensus snapshot published yet"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(snapshot))
}

// GetLatestReadings returns the individual agent readings behind the latest
// published batch for a hazard.
func (h *OracleHandler) GetLatestReadings(c fiber.Ctx) error {
	hazardID := c.Params("id")
	if h.catalog.Get(hazardID) == nil {
		return c.Status(http.StatusNotFound).JSON(
			models.CreateErrorResponse("NOT_FOUND", "Hazard not found"))
	}

	batch, ok := h.board.Batch(hazardID)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(
			models.CreateErrorResponse("NO_READINGS", "No reading batch published yet"))
	}

	return c.Status(http.StatusOK).JSON(models.CreateSuccessResponse(batch))
}
