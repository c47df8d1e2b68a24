package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
)

func testContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	return ctx, rec
}

func TestDeckIDIsCaseInsensitive(t *testing.T) {
	v := New([]string{"A", "B", "C", "D"}, []string{"1", "2"})

	ctx, _ := testContext()
	id, ok := v.DeckID(ctx, "b")
	assert.Equal(t, true, ok)
	assert.Equal(t, "B", id)
}

func TestUnknownDeckWrites400(t *testing.T) {
	v := New([]string{"A", "B"}, []string{"1"})

	for _, raw := range []string{"E", "", "AB"} {
		ctx, rec := testContext()
		_, ok := v.DeckID(ctx, raw)
		assert.Equal(t, false, ok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestChannelID(t *testing.T) {
	v := New([]string{"A"}, []string{"1", "2", "3", "4"})

	ctx, _ := testContext()
	id, ok := v.ChannelID(ctx, "2")
	assert.Equal(t, true, ok)
	assert.Equal(t, "2", id)

	ctx, rec := testContext()
	_, ok = v.ChannelID(ctx, "5")
	assert.Equal(t, false, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type levelPayload struct {
	Level *float64 `json:"onAirLevel" validate:"omitempty,gte=0,lte=1"`
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	v := New([]string{"A"}, []string{"1"})
	high := 1.5

	ctx, rec := testContext()
	ok := v.ValidateStruct(ctx, &levelPayload{Level: &high})
	assert.Equal(t, false, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, true, strings.Contains(rec.Body.String(), "onAirLevel"))

	zero := 0.0
	ctx, _ = testContext()
	assert.Equal(t, true, v.ValidateStruct(ctx, &levelPayload{Level: &zero}))
	ctx, _ = testContext()
	assert.Equal(t, true, v.ValidateStruct(ctx, &levelPayload{}))
}
