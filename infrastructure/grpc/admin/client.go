package admin

import (
	"chat-relay/observability"
	"context"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// bearer attaches the admin token to every call.
type bearer string

func (b bearer) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(b)}, nil
}

func (bearer) RequireTransportSecurity() bool {
	return false
}

type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to the admin API at target. Extra options are appended, which
// lets tests swap the dialer.
func Dial(target, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
		grpc.WithPerRPCCredentials(bearer(token)),
	}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Emit(ctx context.Context, eventName string, payload json.RawMessage) (int, error) {
	out := new(EmitResponse)
	if err := c.conn.Invoke(ctx, AdminService_Emit_FullMethodName, &EmitRequest{EventName: eventName, Payload: payload}, out); err != nil {
		return 0, err
	}
	return out.Delivered, nil
}

func (c *Client) Stats(ctx context.Context) (observability.Stats, error) {
	var out observability.Stats
	err := c.conn.Invoke(ctx, AdminService_Stats_FullMethodName, &StatsRequest{}, &out)
	return out, err
}

func (c *Client) Presence(ctx context.Context, username string) (*PresenceResponse, error) {
	out := new(PresenceResponse)
	if err := c.conn.Invoke(ctx, AdminService_Presence_FullMethodName, &PresenceRequest{Username: username}, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) History(ctx context.Context, in HistoryRequest) (*HistoryResponse, error) {
	out := new(HistoryResponse)
	if err := c.conn.Invoke(ctx, AdminService_History_FullMethodName, &in, out); err != nil {
		return nil, err
	}
	return out, nil
}
