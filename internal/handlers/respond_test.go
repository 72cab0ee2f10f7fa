package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"canteen-backend/internal/apperr"
)

func perform(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/probe", handler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid envelope: %v", err)
	}
	return w, body
}

func TestEnvelopeSuccess(t *testing.T) {
	w, body := perform(t, func(c *gin.Context) {
		respondOK(c, gin.H{"n": 1})
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if body["success"] != true || body["data"] == nil {
		t.Errorf("envelope = %v", body)
	}
}

func TestEnvelopeErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperr.New(apperr.Validation, "bad"), http.StatusBadRequest},
		{apperr.New(apperr.Unauthorized, "no"), http.StatusUnauthorized},
		{apperr.New(apperr.Forbidden, "no"), http.StatusForbidden},
		{apperr.New(apperr.NotFound, "gone"), http.StatusNotFound},
		{apperr.New(apperr.Conflict, "dup"), http.StatusConflict},
		{apperr.New(apperr.Transient, "later"), http.StatusServiceUnavailable},
		{apperr.New(apperr.Gateway, "upstream"), http.StatusBadGateway},
	}
	for _, tc := range cases {
		w, body := perform(t, func(c *gin.Context) {
			respondErr(c, tc.err)
		})
		if w.Code != tc.want {
			t.Errorf("%v: status = %d, want %d", tc.err, w.Code, tc.want)
		}
		if body["success"] != false || body["error"] == "" {
			t.Errorf("%v: envelope = %v", tc.err, body)
		}
	}
}

func TestEnvelopeCarriesCodeAndFields(t *testing.T) {
	err := apperr.New(apperr.Validation, "invalid page definition").
		WithCode("PAGE_INVALID").
		WithField("route", "must not be empty")

	_, body := perform(t, func(c *gin.Context) {
		respondErr(c, err)
	})
	if body["code"] != "PAGE_INVALID" {
		t.Errorf("code = %v", body["code"])
	}
	fields, ok := body["fields"].(map[string]interface{})
	if !ok || fields["route"] != "must not be empty" {
		t.Errorf("fields = %v", body["fields"])
	}
}
