package handlers

import (
	"net/http"

	"breakfast-order-service/internal/catalog"
	"breakfast-order-service/internal/roster"
	"breakfast-order-service/pkg/response"
)

type menuPayload struct {
	Items         []catalog.MenuItem   `json:"items"`
	Prices        map[string]int       `json:"prices"`
	SugarSplits   []catalog.SugarSplit `json:"sugarSplits"`
	BillingMains  []string             `json:"billingMains"`
	BillingDrinks []string             `json:"billingDrinks"`
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	menu := h.Service.Menu()
	items := menu.Items()
	prices := make(map[string]int)
	for _, item := range items {
		if price, ok := menu.Price(item.ID); ok {
			prices[item.ID] = price
		}
	}
	for _, split := range menu.SugarSplits() {
		if price, ok := menu.Price(split.LineID); ok {
			prices[split.LineID] = price
		}
	}
	response.Success(w, menuPayload{
		Items:         items,
		Prices:        prices,
		SugarSplits:   menu.SugarSplits(),
		BillingMains:  menu.BillingMains(),
		BillingDrinks: menu.BillingDrinks(),
	})
}

type floorPayload struct {
	Floor int           `json:"floor"`
	Rooms []roster.Room `json:"rooms"`
}

func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.Service.Rooms()
	floors := make([]floorPayload, 0)
	for _, floor := range rooms.Floors() {
		floors = append(floors, floorPayload{Floor: floor, Rooms: rooms.OnFloor(floor)})
	}
	response.Success(w, map[string]any{
		"total":  rooms.Len(),
		"floors": floors,
	})
}
