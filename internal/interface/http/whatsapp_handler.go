package http

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/campusbot/internal/domain/chat"
)

// twimlResponse is the Twilio messaging reply envelope.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

const whatsappFallback = "Maaf, terjadi kesalahan dalam memproses pesan Anda. Silakan coba lagi."

// WhatsAppWebhook answers an inbound Twilio WhatsApp message with TwiML.
// Twilio posts form-encoded From/Body fields; the sender number doubles as
// the stable user identifier.
func (h *Handler) WhatsAppWebhook(c *gin.Context) {
	from := strings.TrimSpace(c.PostForm("From"))
	body := c.PostForm("Body")

	reply, err := h.chatSvc.Respond(c.Request.Context(), chat.Request{
		UserID:  from,
		Message: body,
		Channel: chat.ChannelWhatsApp,
	})
	text := whatsappFallback
	if err != nil {
		h.logger.Error("whatsapp webhook failed", "error", err, "from", from)
	} else {
		text = chat.FormatForWhatsApp(reply.Text)
	}

	c.XML(http.StatusOK, twimlResponse{Message: text})
}
