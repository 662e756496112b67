// Package card builds adaptive card payloads for outbound messages.
package card

import (
	"encoding/json"

	"github.com/mbocsi/sparkbot/webex"
)

const schema = "http://adaptivecards.io/schemas/adaptive-card.json"

type AdaptiveCard struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Body    []any  `json:"body,omitempty"`
	Actions []any  `json:"actions,omitempty"`
}

func New(body []any, actions []any) AdaptiveCard {
	return AdaptiveCard{
		Type:    "AdaptiveCard",
		Version: "1.2",
		Schema:  schema,
		Body:    body,
		Actions: actions,
	}
}

type TextBlock struct {
	Type                string `json:"type"`
	Text                string `json:"text"`
	Weight              string `json:"weight,omitempty"`
	Size                string `json:"size,omitempty"`
	Color               string `json:"color,omitempty"`
	Wrap                bool   `json:"wrap,omitempty"`
	IsSubtle            bool   `json:"isSubtle,omitempty"`
	HorizontalAlignment string `json:"horizontalAlignment,omitempty"`
}

func Text(text string) TextBlock {
	return TextBlock{Type: "TextBlock", Text: text, Wrap: true}
}

type Image struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Size string `json:"size,omitempty"`
}

func NewImage(url, size string) Image {
	return Image{Type: "Image", URL: url, Size: size}
}

type Column struct {
	Type  string `json:"type"`
	Items []any  `json:"items"`
	Width any    `json:"width,omitempty"`
}

func NewColumn(width any, items ...any) Column {
	return Column{Type: "Column", Items: items, Width: width}
}

type ColumnSet struct {
	Type    string   `json:"type"`
	Columns []Column `json:"columns"`
}

func NewColumnSet(columns ...Column) ColumnSet {
	return ColumnSet{Type: "ColumnSet", Columns: columns}
}

type InputText struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Placeholder string `json:"placeholder,omitempty"`
	MaxLength   int    `json:"maxLength,omitempty"`
}

func NewInputText(id, placeholder string, maxLength int) InputText {
	return InputText{Type: "Input.Text", ID: id, Placeholder: placeholder, MaxLength: maxLength}
}

type Submit struct {
	Type  string         `json:"type"`
	Title string         `json:"title"`
	Data  map[string]any `json:"data,omitempty"`
}

func NewSubmit(title string, data map[string]any) Submit {
	return Submit{Type: "Action.Submit", Title: title, Data: data}
}

// FallbackText is sent alongside every card for clients that cannot
// render them.
const FallbackText = "This bot requires a client which can render cards."

// Response wraps a card in an outbound message draft.
func Response(c AdaptiveCard) *webex.Response {
	return &webex.Response{
		Text:        FallbackText,
		Attachments: []webex.Attachment{Attachment(c)},
	}
}

// Attachment marshals a card into a message attachment.
func Attachment(c AdaptiveCard) webex.Attachment {
	content, err := json.Marshal(c)
	if err != nil {
		// Cards are built from plain structs; this cannot fail at
		// runtime with well-formed input.
		panic("card: marshal adaptive card: " + err.Error())
	}
	return webex.Attachment{ContentType: webex.CardContentType, Content: content}
}

// RawResponse wraps an already-serialized card body, for commands
// that carry a static card.
func RawResponse(content json.RawMessage) *webex.Response {
	return &webex.Response{
		Text:        FallbackText,
		Attachments: []webex.Attachment{{ContentType: webex.CardContentType, Content: content}},
	}
}
