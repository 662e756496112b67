package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mbocsi/sparkbot/bot"
	"github.com/mbocsi/sparkbot/realtime"
	"github.com/mbocsi/sparkbot/webex"
)

// BotAPI is what the tools need from the bot.
type BotAPI interface {
	ConnectionState() realtime.State
	DisplayName() string
	Commands() []*bot.Command
	Send(ctx context.Context, draft *webex.Response) (*webex.Message, error)
}

// RegisterTools wires the chat-ops tools onto the MCP server.
func RegisterTools(s *MCPServer, b BotAPI) {
	sendTool := mcp.NewTool("send_message",
		mcp.WithDescription("Send a markdown message to a room or directly to a person"),
		mcp.WithString("markdown",
			mcp.Required(),
			mcp.Description("Markdown body of the message"),
		),
		mcp.WithString("room_id",
			mcp.Description("Target room id"),
		),
		mcp.WithString("to_person_email",
			mcp.Description("Target person email for a direct message"),
		),
	)
	s.Server.AddTool(sendTool, handleSendMessage(b))

	listTool := mcp.NewTool("list_commands",
		mcp.WithDescription("List the commands registered on the bot"),
	)
	s.Server.AddTool(listTool, handleListCommands(b))

	statusTool := mcp.NewTool("connection_status",
		mcp.WithDescription("Report the realtime connection state and bot identity"),
	)
	s.Server.AddTool(statusTool, handleConnectionStatus(b))
}

func handleSendMessage(b BotAPI) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		markdown, err := request.RequireString("markdown")
		if err != nil {
			return mcp.NewToolResultError("markdown is required and must be a string"), err
		}
		roomID := request.GetString("room_id", "")
		email := request.GetString("to_person_email", "")
		if (roomID == "") == (email == "") {
			return mcp.NewToolResultError("exactly one of room_id or to_person_email is required"),
				fmt.Errorf("invalid message target")
		}

		msg, err := b.Send(ctx, &webex.Response{RoomID: roomID, ToPersonEmail: email, Markdown: markdown})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), err
		}
		return mcp.NewToolResultText(fmt.Sprintf("Message sent, id=%s", msg.ID)), nil
	}
}

func handleListCommands(b BotAPI) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type commandInfo struct {
			Keyword         string `json:"keyword,omitempty"`
			CallbackKeyword string `json:"callbackKeyword,omitempty"`
			Help            string `json:"help,omitempty"`
		}
		var out []commandInfo
		for _, c := range b.Commands() {
			out = append(out, commandInfo{
				Keyword:         c.Keyword,
				CallbackKeyword: c.CallbackKeyword,
				Help:            c.Help,
			})
		}
		data, _ := json.Marshal(map[string]any{"commands": out, "count": len(out)})
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleConnectionStatus(b BotAPI) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.Marshal(map[string]string{
			"state":       b.ConnectionState().String(),
			"displayName": b.DisplayName(),
		})
		return mcp.NewToolResultText(string(data)), nil
	}
}
