package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/and161185/cardkeeper/internal/convert"
	"github.com/and161185/cardkeeper/internal/errs"
	"github.com/and161185/cardkeeper/internal/model"
	"github.com/and161185/cardkeeper/internal/service"
)

var errBadBody = fmt.Errorf("%w: malformed JSON body", errs.ErrValidation)

// Handler serves the card and sign-in routes.
type Handler struct {
	cards   service.CardService
	auth    service.AuthService
	log     *zap.Logger
	timeout time.Duration
}

// NewHandler constructs Handler. A zero timeout disables per-request deadlines.
func NewHandler(cards service.CardService, auth service.AuthService, log *zap.Logger, timeout time.Duration) *Handler {
	return &Handler{cards: cards, auth: auth, log: log, timeout: timeout}
}

// Register mounts the API under r.
func (h *Handler) Register(r fiber.Router) {
	api := r.Group("/api/v1")
	api.Post("/auth/signin", h.SignIn)

	cards := api.Group("/cards", RequireCaller(h.auth))
	cards.Post("/add", h.CreateCard)
	cards.Get("/fetch", h.ListCards)
	cards.Put("/active/:cardID", h.SetActive)
	cards.Get("/:cardID", h.GetCard)
	cards.Put("/:cardID", h.UpdateCard)
	cards.Delete("/:cardID", h.DeleteCard)
}

func (h *Handler) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.UserContext())
	}
	return context.WithTimeout(c.UserContext(), h.timeout)
}

func (h *Handler) fail(c *fiber.Ctx, op string, err error) error {
	if statusFor(err) == http.StatusInternalServerError {
		h.log.Error(op, zap.Error(err))
	}
	return writeError(c, err)
}

func (h *Handler) caller(c *fiber.Ctx) (model.Caller, error) {
	caller, ok := CallerFromCtx(c.UserContext())
	if !ok {
		return model.Caller{}, errs.ErrUnauthorized
	}
	return caller, nil
}

type signInBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SignIn exchanges credentials for an access token.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var body signInBody
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, errBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	tok, err := h.auth.SignIn(ctx, body.Email, body.Password, c.IP())
	if err != nil {
		return h.fail(c, "sign in", err)
	}
	return writeOK(c, http.StatusOK, "signed in", tokenDTO{Token: tok.AccessToken, ExpiresAt: tok.ExpiresAt})
}

// CreateCard handles POST /cards/add.
func (h *Handler) CreateCard(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return writeError(c, err)
	}
	var body convert.CardBody
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, errBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	card, err := h.cards.Create(ctx, caller, body.ToRequest())
	if err != nil {
		return h.fail(c, "create card", err)
	}
	return writeOK(c, http.StatusCreated, "card created", convert.ToCardDTO(*card))
}

// ListCards handles GET /cards/fetch.
func (h *Handler) ListCards(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return writeError(c, err)
	}
	get := func(k string) string { return c.Query(k) }
	page, err := convert.PageFromQuery(get)
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	res, err := h.cards.List(ctx, caller, convert.FilterFromQuery(get), page)
	if err != nil {
		return h.fail(c, "list cards", err)
	}
	return writeOK(c, http.StatusOK, "cards fetched", convert.ToPageDTO(res))
}

// GetCard handles GET /cards/:cardID.
func (h *Handler) GetCard(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := convert.ParseCardID(c.Params("cardID"))
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	card, err := h.cards.Get(ctx, caller, id)
	if err != nil {
		return h.fail(c, "get card", err)
	}
	return writeOK(c, http.StatusOK, "card fetched", convert.ToCardDTO(*card))
}

// UpdateCard handles PUT /cards/:cardID.
func (h *Handler) UpdateCard(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := convert.ParseCardID(c.Params("cardID"))
	if err != nil {
		return writeError(c, err)
	}
	var body convert.CardBody
	if err := c.BodyParser(&body); err != nil {
		return writeError(c, errBadBody)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	card, err := h.cards.Update(ctx, caller, id, body.ToRequest())
	if err != nil {
		return h.fail(c, "update card", err)
	}
	return writeOK(c, http.StatusOK, "card updated", convert.ToCardDTO(*card))
}

// SetActive handles PUT /cards/active/:cardID?active=0|1.
func (h *Handler) SetActive(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := convert.ParseCardID(c.Params("cardID"))
	if err != nil {
		return writeError(c, err)
	}
	active, err := convert.ParseActive(c.Query("active"))
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	card, err := h.cards.SetActive(ctx, caller, id, active)
	if err != nil {
		return h.fail(c, "set card active", err)
	}
	msg := "card deactivated"
	if active {
		msg = "card activated"
	}
	return writeOK(c, http.StatusOK, msg, convert.ToCardDTO(*card))
}

// DeleteCard handles DELETE /cards/:cardID.
func (h *Handler) DeleteCard(c *fiber.Ctx) error {
	caller, err := h.caller(c)
	if err != nil {
		return writeError(c, err)
	}
	id, err := convert.ParseCardID(c.Params("cardID"))
	if err != nil {
		return writeError(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.cards.Delete(ctx, caller, id); err != nil {
		return h.fail(c, "delete card", err)
	}
	return writeOK(c, http.StatusOK, "card deleted", nil)
}
