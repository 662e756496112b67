package webex

import "fmt"

// Markup helpers for message bodies.

func QuoteInfo(text string) string {
	return fmt.Sprintf("<blockquote class=info>%s</blockquote>", text)
}

func QuoteWarning(text string) string {
	return fmt.Sprintf("<blockquote class=warning>%s</blockquote>", text)
}

func QuoteDanger(text string) string {
	return fmt.Sprintf("<blockquote class=danger>%s</blockquote>", text)
}

func Code(text string) string {
	return fmt.Sprintf("<code>%s</code>", text)
}

func Link(text, url string) string {
	return fmt.Sprintf("<a href='%s'>%s</a>", url, text)
}
