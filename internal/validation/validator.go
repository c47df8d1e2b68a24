package validation

import (
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator to integrate with Gin. Besides the
// built-in tags it knows "deck" and "channel", which accept only the
// configured entity ids.
type Validator struct {
	v        *validator.Validate
	decks    map[string]struct{}
	channels map[string]struct{}
}

func New(decks, channels []string) *Validator {
	val := &Validator{
		v:        validator.New(),
		decks:    toSet(decks, strings.ToUpper),
		channels: toSet(channels, strings.TrimSpace),
	}
	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.v.RegisterValidation("deck", func(fl validator.FieldLevel) bool {
		_, ok := val.decks[strings.ToUpper(fl.Field().String())]
		return ok
	})
	_ = val.v.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		_, ok := val.channels[fl.Field().String()]
		return ok
	})
	return val
}

func (v *Validator) ValidateStruct(ctx *gin.Context, payload any) bool {
	if err := v.v.Struct(payload); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

// DeckID validates a path-carried deck id and returns its canonical
// upper-case form. On failure it writes the 400 response.
func (v *Validator) DeckID(ctx *gin.Context, raw string) (string, bool) {
	if err := v.v.Var(raw, "required,deck"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown deck " + strconv.Quote(raw)})
		return "", false
	}
	return strings.ToUpper(raw), true
}

func (v *Validator) IsDeck(raw string) bool {
	return v.v.Var(raw, "required,deck") == nil
}

// ChannelID validates a path-carried mixer channel id.
func (v *Validator) ChannelID(ctx *gin.Context, raw string) (string, bool) {
	if err := v.v.Var(raw, "required,channel"); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "unknown channel " + strconv.Quote(raw)})
		return "", false
	}
	return raw, true
}

func toSet(values []string, norm func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, value := range values {
		set[norm(value)] = struct{}{}
	}
	return set
}
