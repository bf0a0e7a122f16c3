package webhook

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/core/domain"
)

// Signature headers on every interaction request.
const (
	headerSignature = "X-Signature-Ed25519"
	headerTimestamp = "X-Signature-Timestamp"
)

const maxInteractionBody = 1 << 20

// interactionPayload is the inbound interaction wire format, reduced to
// the fields the bot reads.
type interactionPayload struct {
	Type          int    `json:"type"`
	Token         string `json:"token"`
	ApplicationID string `json:"application_id"`
	Data          struct {
		Name    string `json:"name"`
		Options []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"options"`
	} `json:"data"`
}

// interactionResponse is the synchronous reply to an interaction.
type interactionResponse struct {
	Type int           `json:"type"`
	Data *responseData `json:"data,omitempty"`
}

type responseData struct {
	Content string `json:"content"`
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInteractionBody))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if err := s.verifySignature(r, body); err != nil {
		s.log.Warn("interaction signature rejected", zap.Error(err))
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var payload interactionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case domain.InteractionPing:
		writeJSON(w, http.StatusOK, interactionResponse{Type: domain.ResponsePong})

	case domain.InteractionCommand:
		s.handleCommand(w, payload)

	default:
		writeJSON(w, http.StatusOK, interactionResponse{
			Type: domain.ResponseMessage,
			Data: &responseData{Content: unknownEventMessage},
		})
	}
}

// verifySignature checks the ed25519 signature over timestamp+body.
func (s *Server) verifySignature(r *http.Request, body []byte) error {
	sigHex := r.Header.Get(headerSignature)
	timestamp := r.Header.Get(headerTimestamp)
	if sigHex == "" || timestamp == "" {
		return domain.ErrBadSignature
	}

	sig, err := hex.DecodeString(sigHex)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return domain.ErrBadSignature
	}

	message := append([]byte(timestamp), body...)
	if !ed25519.Verify(s.cfg.PublicKey, message, sig) {
		return domain.ErrBadSignature
	}
	return nil
}

// handleCommand defers the response and queues the answer task. The
// platform expects the deferred acknowledgment within seconds, so all
// real work happens in the background.
func (s *Server) handleCommand(w http.ResponseWriter, payload interactionPayload) {
	if payload.Data.Name != s.cfg.CommandName {
		writeJSON(w, http.StatusOK, interactionResponse{
			Type: domain.ResponseMessage,
			Data: &responseData{Content: unknownEventMessage},
		})
		return
	}

	req := domain.InteractionRequest{
		Token:         payload.Token,
		ApplicationID: payload.ApplicationID,
		RawQuery:      domain.DefaultQuery,
		ReceivedAt:    time.Now().UTC(),
	}
	if req.ApplicationID == "" {
		req.ApplicationID = s.cfg.ApplicationID
	}
	for _, opt := range payload.Data.Options {
		if opt.Name == "query" && opt.Value != "" {
			req.RawQuery = opt.Value
		}
	}

	err := s.queue.Submit(func(ctx context.Context) {
		s.answerInteraction(ctx, req)
	})
	if err != nil {
		if errors.Is(err, domain.ErrDispatcherSaturated) {
			s.log.Warn("answer queue saturated, apologising immediately")
		}
		writeJSON(w, http.StatusOK, interactionResponse{
			Type: domain.ResponseMessage,
			Data: &responseData{Content: apologyMessage},
		})
		return
	}

	writeJSON(w, http.StatusOK, interactionResponse{Type: domain.ResponseDeferred})
}

// answerInteraction runs the answer pipeline and delivers the result
// through the interaction token. Failures deliver the apology instead;
// the token must always be resolved or the user sees a hung response.
func (s *Server) answerInteraction(ctx context.Context, req domain.InteractionRequest) {
	answerCtx, cancel := context.WithTimeout(ctx, s.cfg.AnswerTimeout)
	defer cancel()

	content, err := s.answerer.Answer(answerCtx, req.RawQuery)
	if err != nil {
		s.log.Error("answering failed",
			zap.String("query", req.RawQuery),
			zap.Error(err))
		content = apologyMessage
	}

	// The apology path usually means the answer deadline already fired,
	// and a worker shutdown cancels the parent. Delivery must still
	// resolve the token, so it runs on its own detached deadline.
	deliverCtx, cancelDeliver := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.AnswerTimeout)
	defer cancelDeliver()

	if err := s.delivery.EditOriginal(deliverCtx, req.ApplicationID, req.Token, content); err != nil {
		s.log.Error("deferred delivery failed", zap.Error(err))
	}
}
