package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/calllog"
	"github.com/neboloop/cell/internal/client"
	"github.com/neboloop/cell/internal/session"
)

// DemoCmd runs an interactive session in the terminal: type calls, accept
// or dismiss suggestions, and chat about what you did.
func DemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Interactive prediction session",
		Long: `Record API calls by typing them, see the predicted next call,
and accept or dismiss it. Use /help for commands.

Examples:
  cell demo
  cell demo --server http://localhost:3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := demoSession()
			if err != nil {
				return err
			}
			runDemo(ctx, s, os.Stdin, os.Stdout)
			return nil
		},
	}
	addServerFlag(cmd)
	return cmd
}

func demoSession() (*session.Session, error) {
	log := calllog.New(ServerConfig.CallLog.Capacity)
	if serverURL != "" {
		c := client.New(serverURL)
		return session.New(uuid.NewString(), log, c, c), nil
	}
	svcCtx, err := localServices()
	if err != nil {
		return nil, err
	}
	return session.New(uuid.NewString(), log, svcCtx, svcCtx), nil
}

const demoHelp = `Commands:
  GET /api/users/list          - Record a call (any HTTP method)
  POST /api/items {"a": 1}     - Record a call with JSON parameters
  y | accept                   - Execute the suggested call
  n | dismiss                  - Dismiss the suggestion
  ? <question> | /chat <text>  - Ask about your activity
  /log                         - Show recorded calls
  /clear                       - Clear recorded calls
  /quit                        - Exit`

var httpMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true, "DELETE": true, "HEAD": true, "OPTIONS": true,
}

func runDemo(ctx context.Context, s *session.Session, in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "\033[1mcell interactive mode\033[0m")
	fmt.Fprintln(out, "Type a call like 'GET /api/users/list'. Use /help for commands, Ctrl+C to exit.")
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)
	for ctx.Err() == nil {
		fmt.Fprint(out, "\033[36m> \033[0m")
		line, err := reader.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" && !handleDemoLine(ctx, s, line, out) {
			return
		}
		if err != nil {
			return
		}
	}
}

// handleDemoLine executes one line and reports whether to keep going.
func handleDemoLine(ctx context.Context, s *session.Session, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	switch {
	case line == "/quit" || line == "/exit":
		return false

	case line == "/help":
		fmt.Fprintln(out, demoHelp)

	case line == "/log":
		calls := s.Calls()
		if len(calls) == 0 {
			fmt.Fprintln(out, "No calls recorded.")
		}
		for i, c := range calls {
			fmt.Fprintf(out, "%3d  %s %s\n", i+1, c.Method, c.Endpoint)
		}

	case line == "/clear":
		s.Clear()
		fmt.Fprintln(out, "Call log cleared.")

	case line == "y" || line == "accept":
		prediction := s.Prediction()
		next, err := s.AcceptPrediction(ctx)
		if err != nil {
			fmt.Fprintf(out, "\033[33m%v\033[0m\n", err)
			break
		}
		fmt.Fprintf(out, "Executed GET %s\n", *prediction)
		printPrediction(out, next)

	case line == "n" || line == "dismiss":
		s.Dismiss()
		fmt.Fprintln(out, "Dismissed.")

	case strings.HasPrefix(line, "?") || strings.HasPrefix(line, "/chat"):
		question := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(line, "/chat"), "?"))
		reply, err := s.Submit(ctx, question)
		if err != nil {
			fmt.Fprintf(out, "\033[33m%v\033[0m\n", err)
			break
		}
		fmt.Fprintf(out, "\033[32m%s\033[0m\n", reply.Content)

	case httpMethods[strings.ToUpper(fields[0])] && len(fields) >= 2:
		params := map[string]any{}
		if rest := strings.TrimSpace(strings.SplitN(line, fields[1], 2)[1]); rest != "" {
			if err := json.Unmarshal([]byte(rest), &params); err != nil {
				fmt.Fprintf(out, "\033[31mParameters must be a JSON object: %v\033[0m\n", err)
				break
			}
		}
		printPrediction(out, s.Capture(ctx, fields[1], fields[0], params))

	default:
		fmt.Fprintln(out, "Unknown input. Use /help for commands.")
	}
	return true
}

func printPrediction(out io.Writer, prediction *string) {
	if prediction == nil {
		fmt.Fprintln(out, "No suggestion.")
		return
	}
	fmt.Fprintf(out, "Suggested next: \033[1m%s\033[0m  [y]es / [n]o\n", *prediction)
}
