package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/axis-ops/ticket-service/internal/api/dto"
)

func priorityApp() *fiber.App {
	app := fiber.New()
	handler := NewPriorityHandler()
	app.Get("/priority/model", handler.Model)
	app.Post("/priority/preview", handler.Preview)
	return app
}

func TestPriorityModelRubric(t *testing.T) {
	app := priorityApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/priority/model", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data map[string]map[string]float64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Data) != 4 {
		t.Fatalf("rubric factors = %d, want 4", len(body.Data))
	}
	if body.Data["impact_scope"]["datacenter"] != 10 {
		t.Errorf("impact_scope/datacenter = %v, want 10", body.Data["impact_scope"]["datacenter"])
	}
	if body.Data["service_impact"]["none"] != 0 {
		t.Errorf("service_impact/none = %v, want 0", body.Data["service_impact"]["none"])
	}
}

func TestPriorityPreview(t *testing.T) {
	app := priorityApp()

	payload := `{"factors":{"impact_scope":"datacenter","service_impact":"full_outage","urgency":"immediate","safety":"critical"}}`
	req := httptest.NewRequest(http.MethodPost, "/priority/preview", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data dto.PriorityPreviewResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data.Score != 10 {
		t.Errorf("score = %v, want 10", body.Data.Score)
	}
	if body.Data.Band != "Critical" {
		t.Errorf("band = %s, want Critical", body.Data.Band)
	}
	if body.Data.Weights["safety"] != 10 {
		t.Errorf("safety weight = %v, want 10", body.Data.Weights["safety"])
	}
}

func TestPriorityPreviewUnknownLevelsFailOpen(t *testing.T) {
	app := priorityApp()

	payload := `{"factors":{"impact_scope":"galaxy"}}`
	req := httptest.NewRequest(http.MethodPost, "/priority/preview", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Data dto.PriorityPreviewResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	// Lowest weights: impact 1, service 0, urgency 1, safety 0.
	if body.Data.Score != 0.5 {
		t.Errorf("score = %v, want 0.5", body.Data.Score)
	}
	if body.Data.Band != "Low" {
		t.Errorf("band = %s, want Low", body.Data.Band)
	}
}
