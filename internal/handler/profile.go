package handler

import (
	"net/http"

	"github.com/pennypet/server/internal/ctxkeys"
	"github.com/pennypet/server/internal/model"
	"github.com/pennypet/server/internal/service"
)

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

type nameRequest struct {
	Name string `json:"name"`
}

type petRequest struct {
	Pet       string  `json:"pet"`
	CostumeID *string `json:"costume_id"`
}

type costumeResponse struct {
	model.Costume
	Unlocked bool `json:"unlocked"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	profile, err := h.profileService.ByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req nameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.profileService.UpdateName(r.Context(), userID, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Get(w, r)
}

func (h *ProfileHandler) SelectPet(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	var req petRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profileService.SelectPet(r.Context(), userID, req.Pet, req.CostumeID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// Costumes lists the shop catalog with the caller's unlocked costumes marked.
func (h *ProfileHandler) Costumes(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	profile, err := h.profileService.ByUserID(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	costumes := make([]costumeResponse, 0, len(model.Costumes))
	for _, c := range model.Costumes {
		costumes = append(costumes, costumeResponse{Costume: c, Unlocked: profile.HasCostume(c.ID)})
	}

	writeJSON(w, http.StatusOK, costumes)
}

func (h *ProfileHandler) PurchaseCostume(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	profile, err := h.profileService.PurchaseCostume(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) StreamProfile(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	updates, err := h.profileService.WatchProfile(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	streamSSE(w, r, "profile", updates, func(p *model.Profile) any { return p })
}
