package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/easeaico/liveroom/internal/apperr"
	"github.com/easeaico/liveroom/internal/chat"
)

type startConversationRequest struct {
	CharacterID int    `json:"character_id"`
	Title       string `json:"title"`
}

func (h *Handler) startConversation(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req startConversationRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	if req.CharacterID <= 0 {
		fail(c, apperr.Invalid("character_id is required"))
		return
	}
	conv, err := h.chat.StartConversation(c.Request.Context(), uid, req.CharacterID, req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	created(c, conv, "conversation started")
}

func (h *Handler) listConversations(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	convs, err := h.chat.Conversations(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, convs)
}

func (h *Handler) getConversation(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	conv, err := h.chat.Conversation(c.Request.Context(), id, uid)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, conv)
}

func (h *Handler) sendMessage(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var req chat.SendRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	req.UserID = uid

	reply, err := h.chat.Send(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, reply)
}

func (h *Handler) characterMood(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	status, err := h.chat.MoodStatus(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, status)
}

func (h *Handler) generateImage(c *gin.Context) {
	uid, err := userID(c)
	if err != nil {
		fail(c, err)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	var req chat.ImageRequest
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	req.UserID = uid
	req.CharacterID = id

	result, err := h.images.Generate(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, result)
}
