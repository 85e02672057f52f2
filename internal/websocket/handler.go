package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/binhbb2204/nocturne/internal/apperr"
	"github.com/binhbb2204/nocturne/internal/reader"
)

const actionTimeout = 15 * time.Second

// Handler applies reader transitions received over a connection.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) HandleClientMessage(c *Client, data []byte) error {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError(apperr.New(apperr.CodeValidation, "malformed message"))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()
	s := c.Session

	var (
		v   reader.View
		err error
	)
	switch msg.Type {
	case MessageTypeAdvance:
		v, err = s.Advance(ctx)
	case MessageTypeRetreat:
		v, err = s.Retreat(ctx)
	case MessageTypeKey:
		v, err = s.Key(ctx, msg.Key)
	case MessageTypeTap:
		v, err = s.Tap(ctx, msg.X)
	case MessageTypeJump:
		if msg.ChapterID == "" {
			err = apperr.New(apperr.CodeValidation, "chapter_id is required")
			break
		}
		v, err = s.JumpTo(ctx, msg.ChapterID)
	case MessageTypeDismissGuide:
		s.DismissGuide()
		v = s.View()
	case MessageTypeLibrary:
		if _, err = s.ToggleLibrary(ctx); err == nil {
			v = s.View()
		}
	default:
		err = apperr.New(apperr.CodeValidation, "unknown message type "+string(msg.Type))
	}

	if err != nil {
		if errors.Is(err, reader.ErrStale) {
			return nil
		}
		c.sendError(err)
		return err
	}
	c.sendView(MessageTypeView, v)
	return nil
}
