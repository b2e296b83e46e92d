// Command chatctl talks to the relay's admin API.
//
//	chatctl emit <event> <json>
//	chatctl stats
//	chatctl presence <username>
//	chatctl history [-after N] [-limit N] <conversation-id>
//	chatctl token [-ttl 1h]
package main

import (
	"chat-relay/auth"
	"chat-relay/infrastructure/grpc/admin"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, color.FgRed.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: chatctl emit|stats|presence|history|token")
	}
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	command, args := args[0], args[1:]

	if command == "token" {
		fs := flag.NewFlagSet("token", flag.ContinueOnError)
		ttl := fs.Duration("ttl", time.Hour, "token lifetime")
		if err := fs.Parse(args); err != nil {
			return err
		}
		token, err := auth.GenerateToken([]byte(cfg.Secret), cfg.Subject, []string{auth.RoleAdmin}, *ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, token)
		return nil
	}

	token, err := auth.GenerateToken([]byte(cfg.Secret), cfg.Subject, []string{auth.RoleAdmin}, cfg.Timeout+time.Minute)
	if err != nil {
		return err
	}
	var opts []grpc.DialOption
	if cfg.Verbose {
		opts = append(opts, grpc.WithUnaryInterceptor(callLogger(cfg, out)))
	}
	client, err := admin.Dial(cfg.Addr, token, opts...)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	switch command {
	case "emit":
		return emit(ctx, client, args, out)
	case "stats":
		return stats(ctx, client, out)
	case "presence":
		return presence(ctx, client, args, out)
	case "history":
		return history(ctx, client, args, out)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func callLogger(cfg Config, out io.Writer) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		line := fmt.Sprintf("GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
		if cfg.Colours {
			line = color.New(color.BgBlack, color.FgGreen).Render(line)
		}
		fmt.Fprintln(out, line)
		return err
	}
}

func emit(ctx context.Context, client *admin.Client, args []string, out io.Writer) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: chatctl emit <event> <json>")
	}
	delivered, err := client.Emit(ctx, args[0], json.RawMessage(args[1]))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s delivered to %d connection(s)\n", color.FgCyan.Render(args[0]), delivered)
	return nil
}

func stats(ctx context.Context, client *admin.Client, out io.Writer) error {
	s, err := client.Stats(ctx)
	if err != nil {
		return err
	}
	table := newTable(out, "Metric", "Value")
	table.AppendBulk([][]string{
		{"started_at", s.StartedAt.Format(time.RFC3339)},
		{"connections", strconv.Itoa(s.Connections)},
		{"online_identities", strconv.Itoa(s.OnlineIdentities)},
		{"presence_pending", strconv.Itoa(s.PresencePending)},
		{"messages_stored", strconv.FormatUint(s.MessagesStored, 10)},
		{"messages_relayed", strconv.FormatUint(s.MessagesRelayed, 10)},
		{"messages_offline", strconv.FormatUint(s.MessagesOffline, 10)},
		{"relays_dropped", strconv.FormatUint(s.RelaysDropped, 10)},
		{"persist_failures", strconv.FormatUint(s.PersistFailures, 10)},
		{"typing_signals", strconv.FormatUint(s.TypingSignals, 10)},
		{"external_events", strconv.FormatUint(s.ExternalEvents, 10)},
		{"goroutines", strconv.Itoa(s.Goroutines)},
		{"alloc_mem_mb", strconv.FormatUint(s.AllocMemMb, 10)},
		{"rss_bytes", strconv.FormatUint(s.RSSBytes, 10)},
		{"cpu_percent", strconv.FormatFloat(s.CPUPercent, 'f', 2, 64)},
	})
	table.Render()
	return nil
}

func presence(ctx context.Context, client *admin.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: chatctl presence <username>")
	}
	p, err := client.Presence(ctx, args[0])
	if err != nil {
		return err
	}
	lastSeen := ""
	if p.LastSeen != nil {
		lastSeen = p.LastSeen.Format(time.RFC3339)
	}
	state := color.FgGray.Render("offline")
	if p.Live {
		state = color.FgGreen.Render("live")
	}
	table := newTable(out, "Username", "State", "Connection", "Stored online", "Admin", "Last seen")
	table.Append([]string{p.Username, state, p.ConnectionID, strconv.FormatBool(p.Online), strconv.FormatBool(p.Admin), lastSeen})
	table.Render()
	return nil
}

func history(ctx context.Context, client *admin.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	after := fs.Uint64("after", 0, "only messages with a greater sequence")
	limit := fs.Int("limit", 0, "maximum number of messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: chatctl history [-after N] [-limit N] <conversation-id>")
	}
	h, err := client.History(ctx, admin.HistoryRequest{ConversationID: fs.Arg(0), After: *after, Limit: *limit})
	if err != nil {
		return err
	}
	table := newTable(out, "Seq", "At", "From", "To", "Content")
	for _, m := range h.Messages {
		table.Append([]string{strconv.FormatUint(m.Seq, 10), m.CreatedAt.Format(time.RFC3339), m.Sender, m.Receiver, m.Content})
	}
	table.Render()
	fmt.Fprintf(out, "\nnext: -after %d\n", h.NextAfter)
	return nil
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
