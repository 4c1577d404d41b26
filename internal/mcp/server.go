package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/joescharf/fixxy/internal/catalog"
	"github.com/joescharf/fixxy/internal/models"
	"github.com/joescharf/fixxy/internal/session"
)

// Server exposes the tutor tasks and the problem catalog as MCP tools.
type Server struct {
	asker   session.Asker
	catalog catalog.Source
	version string
	log     zerolog.Logger
}

// NewServer creates the MCP server wrapper. Tutor calls go through asker,
// the same inference service the chat uses.
func NewServer(asker session.Asker, src catalog.Source, version string, log zerolog.Logger) *Server {
	if src == nil {
		src = catalog.Builtin()
	}
	return &Server{
		asker:   asker,
		catalog: src,
		version: version,
		log:     log,
	}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("fixxy", s.version, server.WithToolCapabilities(true))

	srv.AddTool(s.explainTool())
	srv.AddTool(s.solveTool())
	srv.AddTool(s.debugTool())
	srv.AddTool(s.testCasesTool())
	srv.AddTool(s.listSetsTool())
	srv.AddTool(s.listQuestionsTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	stdioServer := server.NewStdioServer(s.MCPServer())
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tutor tools
// ---------------------------------------------------------------------------

func languageOption() mcp.ToolOption {
	return mcp.WithString("language",
		mcp.Description("Programming language: C++, Python, Java or JavaScript (default Python)"),
		mcp.Enum("C++", "Python", "Java", "JavaScript"),
	)
}

// dsa_explain
func (s *Server) explainTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("dsa_explain",
		mcp.WithDescription("Explain a DSA problem: summary, concepts, constraints and a step-by-step approach."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Problem statement or title, e.g. Two Sum")),
		languageOption(),
	)
	return tool, s.tutorHandler("Explain", "question")
}

// dsa_solve
func (s *Server) solveTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("dsa_solve",
		mcp.WithDescription("Produce a solution with time and space complexity."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Problem statement or title")),
		languageOption(),
	)
	return tool, s.tutorHandler("Solve", "question")
}

// dsa_debug
func (s *Server) debugTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("dsa_debug",
		mcp.WithDescription("Find the bugs in a piece of code and return a fixed version."),
		mcp.WithString("code", mcp.Required(), mcp.Description("The buggy code")),
		languageOption(),
	)
	return tool, s.tutorHandler("Debug", "code")
}

// dsa_testcases
func (s *Server) testCasesTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("dsa_testcases",
		mcp.WithDescription("Generate basic, edge-case and stress test cases with expected output."),
		mcp.WithString("question", mcp.Required(), mcp.Description("Problem statement or title")),
		languageOption(),
	)
	return tool, s.tutorHandler("TestCases", "question")
}

// tutorHandler builds a handler that sends the named input field to the
// inference service under task.
func (s *Server) tutorHandler(task, field string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input := request.GetString(field, "")
		if input == "" {
			return mcp.NewToolResultError(session.EmptyInputNotice), nil
		}

		lang := models.DefaultLanguage
		if raw := request.GetString("language", ""); raw != "" {
			parsed, err := models.ParseLanguage(raw)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			lang = parsed
		}

		req := models.AskRequest{Task: task, Language: lang.String()}
		if field == "code" {
			req.Code = input
		} else {
			req.Question = input
		}

		resp, err := s.asker.Ask(ctx, req)
		if err != nil {
			s.log.Warn().Err(err).Str("task", task).Msg("mcp ask failed")
			return mcp.NewToolResultError(fmt.Sprintf("%s (%v)", session.FailureText, err)), nil
		}
		return mcp.NewToolResultText(resp.Answer), nil
	}
}

// ---------------------------------------------------------------------------
// Catalog tools
// ---------------------------------------------------------------------------

// dsa_list_sets
func (s *Server) listSetsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("dsa_list_sets",
		mcp.WithDescription("List the practice problem sets. Returns a JSON array with id, name and position."),
	)
	return tool, s.handleListSets
}

func (s *Server) handleListSets(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sets, err := s.catalog.ListSets(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list sets: %v", err)), nil
	}
	data, err := json.Marshal(sets)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal sets: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// dsa_list_questions
func (s *Server) listQuestionsTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("dsa_list_questions",
		mcp.WithDescription("List the questions in a problem set, optionally filtered by a case-insensitive substring."),
		mcp.WithString("set", mcp.Required(), mcp.Description("Set id or name, e.g. ravi251 or \"Ravi 251\"")),
		mcp.WithString("filter", mcp.Description("Substring to match against question titles")),
	)
	return tool, s.handleListQuestions
}

func (s *Server) handleListQuestions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := request.RequireString("set")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: set"), nil
	}

	set, err := catalog.ResolveSet(ctx, s.catalog, ref)
	if err != nil {
		if errors.Is(err, catalog.ErrSetNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("set not found: %s", ref)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	questions, err := s.catalog.ListQuestions(ctx, set.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list questions: %v", err)), nil
	}
	questions = catalog.Filter(questions, request.GetString("filter", ""))

	out := struct {
		Set       string   `json:"set"`
		Questions []string `json:"questions"`
	}{Set: set.Name, Questions: questions}
	if out.Questions == nil {
		out.Questions = []string{}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal questions: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
