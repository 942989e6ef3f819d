package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
	"github.com/vovakirdan/wirechat-client/internal/proto"
	"github.com/vovakirdan/wirechat-client/internal/transport"
	"github.com/vovakirdan/wirechat-client/internal/transport/stomp"
)

// stomp_smoke logs two identities into a running chat server and checks that a private
// message from one reaches the other.
func main() {
	if err := run(); err != nil {
		log.Printf("stomp_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws/websocket", "STOMP WebSocket address")
	from := flag.String("from", "smoke-sender", "identity that sends")
	to := flag.String("to", "smoke-receiver", "identity that receives")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dialer := &stomp.Dialer{URL: *addr, DialTimeout: *timeout}

	receiver, inbox, err := login(ctx, dialer, *to)
	if err != nil {
		return err
	}
	defer receiver.Close()

	sender, _, err := login(ctx, dialer, *from)
	if err != nil {
		return err
	}
	defer sender.Close()

	payload, err := proto.EncodeIntent(*from, core.Intent{
		Kind:    core.IntentPrivateChat,
		Content: *text,
		Target:  core.Private(*to),
	})
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := sender.Publish(ctx, stomp.DefaultTopics.PrivateChat, payload); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		select {
		case data, ok := <-inbox:
			if !ok {
				return fmt.Errorf("receiver feed closed")
			}
			ev, err := proto.Decode(data)
			if err != nil {
				fmt.Printf("Skipping malformed payload: %s\n", data)
				continue
			}
			fmt.Printf("Received: kind=%s from=%s to=%s content=%q\n", ev.Kind, ev.From, ev.To, ev.Content)
			if ev.Kind == core.EventPrivateChat && ev.From == *from {
				return nil
			}
		case <-ctx.Done():
			return fmt.Errorf("no private message within %s: %w", *timeout, ctx.Err())
		}
	}
}

// login connects identity, subscribes its private feed and announces it.
func login(ctx context.Context, dialer transport.Dialer, identity string) (transport.Conn, <-chan []byte, error) {
	conn, err := dialer.Connect(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	topics := stomp.DefaultTopics.Expand(identity)
	inbox, err := conn.Subscribe(ctx, topics.Private)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", topics.Private, err)
	}
	announce, err := proto.EncodeLogin(identity)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("encode login: %w", err)
	}
	if err := conn.Publish(ctx, topics.Login, announce); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	return conn, inbox, nil
}
