package bot

import (
	"context"
	"sort"

	"github.com/mbocsi/sparkbot/card"
)

const helpKeyword = "help"

// newHelpCommand builds the fallback command: a card listing every
// registered command with a submit action per entry.
func newHelpCommand(b *Bot) *Command {
	cmd := &Command{
		Keyword: helpKeyword,
		Help:    "Get Help",
	}
	cmd.Execute = func(ctx context.Context, req Request) (any, error) {
		return b.buildHelpCard(req), nil
	}
	return cmd
}

func (b *Bot) buildHelpCard(req Request) any {
	heading := card.TextBlock{
		Type: "TextBlock", Text: b.DisplayName(),
		Weight: "bolder", Size: "large", Wrap: true,
	}
	subtitle := card.TextBlock{
		Type: "TextBlock", Text: b.cfg.HelpSubtitle,
		Size: "small", Color: "light", Wrap: true,
	}

	columns := []card.Column{card.NewColumn(2, heading, subtitle)}
	if avatar := b.avatar(); avatar != "" {
		columns = append(columns, card.NewColumn(1, card.NewImage(avatar, "small")))
	}

	// Replies to a threaded message stay in the thread; a top-level
	// message starts one.
	var threadParentID string
	if req.Activity != nil && len(req.Activity.Parent) == 0 {
		threadParentID = req.Activity.ID
	}

	commands := b.registry.Commands()
	sort.Slice(commands, func(i, j int) bool {
		return commands[i].Keyword < commands[j].Keyword
	})

	var actions []any
	for _, c := range commands {
		if c.Help == "" || c.Keyword == helpKeyword || c.Keyword == "" {
			continue
		}
		actions = append(actions, card.NewSubmit(c.Help, map[string]any{
			CommandKeywordKey:  c.Keyword,
			"thread_parent_id": threadParentID,
		}))
	}

	return card.Response(card.New([]any{card.NewColumnSet(columns...)}, actions))
}
