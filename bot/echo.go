package bot

import (
	"context"

	"github.com/mbocsi/sparkbot/card"
	"github.com/mbocsi/sparkbot/webex"
)

const echoCallbackKeyword = "echo_callback"

// NewEchoCommand is the demo command: a card with a text input whose
// submission is routed back through the chained callback command and
// echoed to the user.
func NewEchoCommand() *Command {
	echo := &Command{
		Keyword: "echo",
		Help:    "Echo words back to you!",
		Execute: echoCard,
	}
	echo.Chained = []*Command{{
		CallbackKeyword: echoCallbackKeyword,
		DeletePrevious:  true,
		Execute: func(ctx context.Context, req Request) (any, error) {
			return webex.QuoteInfo(req.Action.Input("message_typed")), nil
		},
	}}
	return echo
}

func echoCard(ctx context.Context, req Request) (any, error) {
	title := card.TextBlock{Type: "TextBlock", Text: "Echo", Weight: "bolder", Size: "medium"}
	hint := card.TextBlock{
		Type: "TextBlock", Wrap: true, IsSubtle: true,
		Text: "Type in something here and it will be echo'd back to you. How useful is that!",
	}
	input := card.NewInputText("message_typed", "Type something here", 30)

	body := []any{
		card.NewColumnSet(card.NewColumn(2, title, hint)),
		card.NewColumnSet(card.NewColumn(2, input)),
	}
	actions := []any{
		card.NewSubmit("Submit", map[string]any{CallbackKeywordKey: echoCallbackKeyword}),
	}
	return card.Response(card.New(body, actions)), nil
}
