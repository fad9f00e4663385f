package whatsapp

import (
	"strconv"
	"time"

	"github.com/casebridge/intake-platform/internal/intake"
)

// WebhookEvent is the Cloud API delivery envelope posted by Meta.
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
	Statuses         []Status  `json:"statuses,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	WaID    string  `json:"wa_id"`
	Profile Profile `json:"profile"`
}

type Profile struct {
	Name string `json:"name"`
}

// Message is a single inbound user message inside a delivery.
type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *Text  `json:"text,omitempty"`
	Image     *Media `json:"image,omitempty"`
	Document  *Media `json:"document,omitempty"`
	Audio     *Media `json:"audio,omitempty"`
	Video     *Media `json:"video,omitempty"`
}

type Text struct {
	Body string `json:"body"`
}

type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Status is a delivery receipt for a message we sent.
type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}

// SendRequest is the Cloud API outbound message payload.
type SendRequest struct {
	MessagingProduct string    `json:"messaging_product"`
	RecipientType    string    `json:"recipient_type"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Text             *SendText `json:"text,omitempty"`
}

type SendText struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type SendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *APIError `json:"error,omitempty"`
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ParseWebhookEvent flattens a delivery envelope into the channel-neutral
// inbound messages the dialogue engine consumes. Media messages carry the
// provider media id as their reference; captions travel as text.
func ParseWebhookEvent(event WebhookEvent) []intake.InboundMessage {
	var messages []intake.InboundMessage

	for _, entry := range event.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}
			for _, m := range change.Value.Messages {
				parsed := intake.InboundMessage{
					SenderID:  m.From,
					MessageID: m.ID,
					Kind:      m.Type,
					Timestamp: parseUnixSeconds(m.Timestamp),
				}

				switch m.Type {
				case "text":
					if m.Text != nil {
						parsed.Text = m.Text.Body
					}
				case "image", "document", "audio", "video":
					if media := m.media(); media != nil {
						parsed.MediaRef = media.ID
						parsed.Text = media.Caption
					}
				default:
					// Unsupported types (reactions, locations) still advance
					// the dialogue as empty input.
				}

				messages = append(messages, parsed)
			}
		}
	}

	return messages
}

func (m Message) media() *Media {
	switch m.Type {
	case "image":
		return m.Image
	case "document":
		return m.Document
	case "audio":
		return m.Audio
	case "video":
		return m.Video
	}
	return nil
}

func parseUnixSeconds(s string) time.Time {
	secs, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Now()
	}
	return time.Unix(secs, 0)
}
