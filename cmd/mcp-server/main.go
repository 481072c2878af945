package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/eshaffer321/chartagopm-go/internal/config"
	"github.com/eshaffer321/chartagopm-go/internal/logging"
	"github.com/eshaffer321/chartagopm-go/pkg/chartago"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// stdout carries the MCP protocol, so logs go to stderr
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logger, err := logging.New(logCfg)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	client, err := chartago.NewClient(cfg.ClientOptions(logger.Client()))
	if err != nil {
		logger.Fatal("failed to initialize chartagoPM client", zap.Error(err))
	}
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := signIn(ctx, client, cfg); err != nil {
		logger.Fatal("failed to sign in", zap.Error(err))
	}

	impl := &mcp.Implementation{
		Name:    "chartagopm",
		Version: "1.0.0",
	}

	server := mcp.NewServer(impl, nil)

	registerTools(server, client)

	// Run server over stdio transport (for Claude Desktop)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// signIn uses the saved session when there is one, otherwise
// CHARTAGO_EMAIL and CHARTAGO_PASSWORD
func signIn(ctx context.Context, client *chartago.Client, cfg *config.ClientConfig) error {
	if client.Session().Authenticated() {
		return nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		return chartago.ErrNotAuthenticated
	}
	_, err := client.Auth.Login(ctx, cfg.Email, cfg.Password)
	return err
}

func registerTools(server *mcp.Server, client *chartago.Client) {
	tools := &chartagoTools{client: client}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List all projects with their dates and descriptions.",
	}, tools.ListProjects)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks. With projectId, returns that project's tasks; without it, the tasks authored by or assigned to the signed-in user. Returns title, status, priority, points and due date.",
	}, tools.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_task_status",
		Description: "Move a task to another status: To Do, Work In Progress, Under Review or Completed.",
	}, tools.UpdateTaskStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task in a project.",
	}, tools.CreateTask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_teams",
		Description: "List the signed-in user's teams with members and roles.",
	}, tools.ListTeams)
}
