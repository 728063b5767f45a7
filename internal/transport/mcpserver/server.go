package mcpserver

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/lo"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/internal/service/memory"
	"github.com/sandevgo/samara/pkg/log"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

const instructions = "Read-only access to the chat memory of the bot: facts about people, " +
	"their relationships, recent messages and who the bot has talked to."

// Server exposes the persisted memory as MCP tools. The stores are reloaded
// from disk before every call so a running bot's writes are visible.
type Server struct {
	mem       *memory.Memory
	search    core.SimilaritySearch
	monitored []string
	now       func() time.Time

	mcp *server.MCPServer
}

// New registers the memory tools. search may be nil.
func New(mem *memory.Memory, search core.SimilaritySearch, monitored []string) *Server {
	s := &Server{
		mem:       mem,
		search:    search,
		monitored: monitored,
		now:       time.Now,
	}

	s.mcp = server.NewMCPServer(
		strings.ToLower(core.AppName),
		core.AppVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	s.mcp.AddTool(mcp.NewTool("get_facts",
		mcp.WithDescription("List the facts and relationships known about a person"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name or tag of the person")),
	), s.getFacts)

	s.mcp.AddTool(mcp.NewTool("search_messages",
		mcp.WithDescription("Find remembered chat messages relevant to a query"),
		mcp.WithString("query", mcp.Required(), mcp.Description("Free text query")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of messages, default 10")),
	), s.searchMessages)

	s.mcp.AddTool(mcp.NewTool("has_interacted",
		mcp.WithDescription("Tell whether the bot has interacted with someone"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the person")),
	), s.hasInteracted)

	s.mcp.AddTool(mcp.NewTool("channel_history",
		mcp.WithDescription("Show the latest messages of a channel, or of all monitored channels"),
		mcp.WithString("channel", mcp.Description("Channel name, empty for every monitored channel")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of messages, default 10")),
	), s.channelHistory)

	return s
}

func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over the given streams until ctx is done.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	log.FromCtx(ctx).Info().Msg("mcp server listening on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

func (s *Server) refresh(ctx context.Context) {
	if err := s.mem.Load(ctx); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("memory reloaded with errors")
	}
}

func (s *Server) getFacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.refresh(ctx)

	subject, ok := s.mem.Directory.Resolve(name)
	if !ok {
		return mcp.NewToolResultText(fmt.Sprintf("No one called %q is known.", name)), nil
	}

	facts := s.mem.Facts.GetFacts(subject.ID)
	rels := s.mem.Relationships.ForSubject(subject.ID)
	if len(facts) == 0 && len(rels) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("Nothing is known about %s yet.", subject.DisplayName())), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Facts about %s:\n", subject.DisplayName())
	for _, f := range facts {
		fmt.Fprintf(&sb, "- %s\n", f)
	}
	if len(rels) > 0 {
		sb.WriteString("Relationships:\n")
		for _, r := range rels {
			other := r.Other(subject.ID)
			if o, ok := s.mem.Directory.Get(other); ok {
				other = o.DisplayName()
			}
			fmt.Fprintf(&sb, "- %s with %s\n", r.Type, other)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) searchMessages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := clampLimit(req.GetInt("limit", defaultLimit))
	s.refresh(ctx)

	var sb strings.Builder
	ranked := memory.Rank(s.mem.Ledger.All(), query, limit, s.now())
	if len(ranked) > 0 {
		sb.WriteString("Recent messages:\n")
		sb.WriteString(memory.FormatMessages(ranked))
	}

	if s.search != nil {
		docs, err := s.search.Search(ctx, query, limit)
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("similarity search failed")
		}
		if len(docs) > 0 {
			sb.WriteString("Archive:\n")
			for _, d := range docs {
				fmt.Fprintf(&sb, "- [%s] #%s %s: %s\n",
					d.Metadata.Timestamp.Format(time.DateTime), d.Metadata.Channel, d.Metadata.Author, d.Text)
			}
		}
	}

	if sb.Len() == 0 {
		return mcp.NewToolResultText("No matching messages."), nil
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) hasInteracted(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s.refresh(ctx)

	check := core.InteractionCheck{Name: name, Result: s.mem.HasInteracted(name)}
	return mcp.NewToolResultText(strings.TrimPrefix(memory.DescribeLookup(check), "- ")), nil
}

func (s *Server) channelHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	channel := strings.TrimSpace(req.GetString("channel", ""))
	limit := clampLimit(req.GetInt("limit", defaultLimit))
	s.refresh(ctx)

	names := s.monitored
	if channel != "" {
		names = []string{channel}
	}

	msgs := s.mem.Ledger.ByChannel(names, limit)
	if len(msgs) == 0 {
		return mcp.NewToolResultText("No messages in that channel."), nil
	}

	authors := lo.Uniq(lo.Map(msgs, func(m core.ChatMessage, _ int) string { return m.Author.DisplayName() }))

	var sb strings.Builder
	fmt.Fprintf(&sb, "Participants: %s\n", strings.Join(authors, ", "))
	sb.WriteString(memory.FormatMessages(msgs))
	return mcp.NewToolResultText(sb.String()), nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	return min(n, maxLimit)
}
