package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
)

/* ReceiveWebhook represents an inbound message notification from the provider
 * Uses value semantics as it represents data, not behavior
 * Field names map one-to-one to the provider's lowerCamelCase wire format
 */
type ReceiveWebhook struct {
	Body             string  `json:"body"`
	BodySize         int     `json:"bodySize"`
	Address          string  `json:"address"`
	FinalSource      string  `json:"finalSource"`
	FinalDestination string  `json:"finalDestination"`
	MessageType      string  `json:"messageType"`
	Fingerprint      string  `json:"fingerprint"`
	ID               int64   `json:"id"`
	CC               *string `json:"cc,omitempty"`
	BCC              *string `json:"bcc,omitempty"`
	Read             bool    `json:"read"`
	ContactID        int64   `json:"contactId"`
	ScheduledDate    *string `json:"scheduledDate,omitempty"`
	DeviceID         *int64  `json:"deviceId,omitempty"`
	DateDeleted      *string `json:"dateDeleted,omitempty"`
	MessageTransport int     `json:"messageTransport"`
	HasAttachment    bool    `json:"hasAttachment"`
	DateCreated      *string `json:"dateCreated,omitempty"`
	Deleted          bool    `json:"deleted"`
	DateRead         *string `json:"dateRead,omitempty"`
	StatusCode       int     `json:"statusCode"`
}

// MalformedPayloadError reports a payload that could not be deserialized,
// naming the offending field when it can be determined.
type MalformedPayloadError struct {
	Field string
	Err   error
}

func (e *MalformedPayloadError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed payload: field %q", e.Field)
	}
	return "malformed payload"
}

func (e *MalformedPayloadError) Unwrap() error {
	return e.Err
}

/* receiveWebhookWire mirrors ReceiveWebhook with pointer fields so that
 * absent required fields can be told apart from zero values
 */
type receiveWebhookWire struct {
	Body             *string `json:"body"`
	BodySize         *int    `json:"bodySize"`
	Address          *string `json:"address"`
	FinalSource      *string `json:"finalSource"`
	FinalDestination *string `json:"finalDestination"`
	MessageType      *string `json:"messageType"`
	Fingerprint      *string `json:"fingerprint"`
	ID               *int64  `json:"id"`
	CC               *string `json:"cc"`
	BCC              *string `json:"bcc"`
	Read             *bool   `json:"read"`
	ContactID        *int64  `json:"contactId"`
	ScheduledDate    *string `json:"scheduledDate"`
	DeviceID         *int64  `json:"deviceId"`
	DateDeleted      *string `json:"dateDeleted"`
	MessageTransport *int    `json:"messageTransport"`
	HasAttachment    *bool   `json:"hasAttachment"`
	DateCreated      *string `json:"dateCreated"`
	Deleted          *bool   `json:"deleted"`
	DateRead         *string `json:"dateRead"`
	StatusCode       *int    `json:"statusCode"`
}

// missingRequired returns the wire name of the first required field that is
// absent, or "" when all required fields are present.
func (w receiveWebhookWire) missingRequired() string {
	checks := []struct {
		name   string
		absent bool
	}{
		{"body", w.Body == nil},
		{"bodySize", w.BodySize == nil},
		{"address", w.Address == nil},
		{"finalSource", w.FinalSource == nil},
		{"finalDestination", w.FinalDestination == nil},
		{"messageType", w.MessageType == nil},
		{"fingerprint", w.Fingerprint == nil},
		{"id", w.ID == nil},
		{"read", w.Read == nil},
		{"contactId", w.ContactID == nil},
		{"messageTransport", w.MessageTransport == nil},
		{"hasAttachment", w.HasAttachment == nil},
		{"deleted", w.Deleted == nil},
		{"statusCode", w.StatusCode == nil},
	}
	for _, c := range checks {
		if c.absent {
			return c.name
		}
	}
	return ""
}

// Parse deserializes an untrusted JSON payload into a ReceiveWebhook.
// Required fields that are absent or of the wrong type produce a
// MalformedPayloadError identifying the field. Optional fields may be
// present-and-null or absent entirely; both parse to an empty value.
// BodySize is an untrusted hint and is never checked against Body.
func Parse(data []byte) (ReceiveWebhook, error) {
	var wire receiveWebhookWire
	if err := json.Unmarshal(data, &wire); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return ReceiveWebhook{}, &MalformedPayloadError{Field: typeErr.Field, Err: err}
		}
		return ReceiveWebhook{}, &MalformedPayloadError{Err: err}
	}

	if field := wire.missingRequired(); field != "" {
		return ReceiveWebhook{}, &MalformedPayloadError{Field: field}
	}

	if *wire.Fingerprint == "" {
		return ReceiveWebhook{}, &MalformedPayloadError{Field: "fingerprint"}
	}

	wh := ReceiveWebhook{
		Body:             *wire.Body,
		BodySize:         *wire.BodySize,
		Address:          *wire.Address,
		FinalSource:      *wire.FinalSource,
		FinalDestination: *wire.FinalDestination,
		MessageType:      *wire.MessageType,
		Fingerprint:      *wire.Fingerprint,
		ID:               *wire.ID,
		CC:               wire.CC,
		BCC:              wire.BCC,
		Read:             *wire.Read,
		ContactID:        *wire.ContactID,
		ScheduledDate:    wire.ScheduledDate,
		DeviceID:         wire.DeviceID,
		DateDeleted:      wire.DateDeleted,
		MessageTransport: *wire.MessageTransport,
		HasAttachment:    *wire.HasAttachment,
		DateCreated:      wire.DateCreated,
		Deleted:          *wire.Deleted,
		DateRead:         wire.DateRead,
		StatusCode:       *wire.StatusCode,
	}

	return wh, nil
}

// DedupeKey returns the natural idempotency key for the webhook.
// Fingerprint and id together uniquely identify a delivery; a redelivery of
// the same pair must never be processed as a new action.
func (w ReceiveWebhook) DedupeKey() string {
	return fmt.Sprintf("%s:%d", w.Fingerprint, w.ID)
}

// Bytes returns the JSON-encoded webhook
// The returned bytes are minified (no extra whitespace)
func (w ReceiveWebhook) Bytes() ([]byte, error) {
	return json.Marshal(w)
}
