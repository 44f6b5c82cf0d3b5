package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// initReplyRoutes registers reply ingestion and denyword endpoints.
func (c *Controller) initReplyRoutes(g *echo.Group) {
	r := g.Group("/replies")

	r.POST("", c.StoreReply)
	r.POST("/:handle/denywords", c.AddDenyWord)
	r.GET("/:handle/hidden", c.GetHiddenReplies)
}

// StoreReply ingests one reply, hiding it immediately when it matches a
// denyword for its handle.
func (c *Controller) StoreReply(ctx echo.Context) error {
	var body struct {
		Handle  string `json:"handle"`
		ReplyID string `json:"reply_id"`
		Content string `json:"content"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if body.Handle == "" || body.ReplyID == "" || body.Content == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
	}

	reply, err := c.replies.StoreReply(ctx.Request().Context(), body.Handle, body.ReplyID, body.Content)
	if err != nil {
		return c.handleError(ctx, err, "Failed to store reply", http.StatusInternalServerError)
	}

	return ctx.JSON(http.StatusOK, map[string]any{
		"stored":         true,
		"is_hidden":      reply.IsHidden,
		"hidden_by_word": reply.HiddenByWord,
	})
}

// AddDenyWord registers a denyword for a handle and reports the replies
// it retroactively hid.
func (c *Controller) AddDenyWord(ctx echo.Context) error {
	var body struct {
		Word string `json:"word"`
	}
	if err := ctx.Bind(&body); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if body.Word == "" {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "Missing required fields"})
	}

	_, newlyHidden, err := c.replies.AddDenyWord(ctx.Request().Context(), ctx.Param("handle"), body.Word)
	if err != nil {
		return c.handleError(ctx, err, "Failed to add denyword", http.StatusInternalServerError)
	}

	type hiddenReply struct {
		ReplyID  string     `json:"reply_id"`
		HiddenAt *time.Time `json:"hidden_at"`
	}
	out := make([]hiddenReply, 0, len(newlyHidden))
	for i := range newlyHidden {
		out = append(out, hiddenReply{
			ReplyID:  newlyHidden[i].ReplyID,
			HiddenAt: newlyHidden[i].HiddenAt,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{
		"added":                true,
		"newly_hidden_count":   len(newlyHidden),
		"newly_hidden_replies": out,
	})
}

// GetHiddenReplies returns the hidden replies for a handle, newest first.
func (c *Controller) GetHiddenReplies(ctx echo.Context) error {
	hidden, err := c.replies.HiddenReplies(ctx.Request().Context(), ctx.Param("handle"))
	if err != nil {
		return c.handleError(ctx, err, "Failed to fetch hidden replies", http.StatusInternalServerError)
	}

	type hiddenReply struct {
		ReplyID      string     `json:"reply_id"`
		Content      string     `json:"content"`
		HiddenAt     *time.Time `json:"hidden_at"`
		HiddenByWord string     `json:"hidden_by_word"`
	}
	out := make([]hiddenReply, 0, len(hidden))
	for i := range hidden {
		out = append(out, hiddenReply{
			ReplyID:      hidden[i].ReplyID,
			Content:      hidden[i].Content,
			HiddenAt:     hidden[i].HiddenAt,
			HiddenByWord: hidden[i].HiddenByWord,
		})
	}
	return ctx.JSON(http.StatusOK, map[string]any{"hidden_replies": out})
}
