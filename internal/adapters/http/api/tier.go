package api

import (
	"math"
	"net/http"
	"strconv"

	"github.com/okian/gradepulse/internal/domain/tier"
)

type tierResponse struct {
	Score float64 `json:"score"`
	Tier  string  `json:"tier"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

// TierHandler classifies a single score.
type TierHandler struct{}

// NewTierHandler creates a new tier handler.
func NewTierHandler() *TierHandler {
	return &TierHandler{}
}

// HandleTier handles GET /tier?score= requests.
func (h *TierHandler) HandleTier(w http.ResponseWriter, r *http.Request) {
	const op = "api.tier"

	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	score, err := strconv.ParseFloat(r.URL.Query().Get("score"), 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	t := tier.Classify(score)
	writeJSON(w, http.StatusOK, tierResponse{Score: score, Tier: t.String(), Label: t.Label(), Color: t.Color()})
}
