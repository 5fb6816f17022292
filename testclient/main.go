// Command testclient is a small exerciser for a running
// registryd, grounded on the original implementation's client.rs (which
// connected, registered a provider, then immediately deregistered and
// printed a report). It is not part of the registry's public surface —
// spec.md section 1 scopes RPC clients out of the core — but a runnable
// client is useful for smoke-testing a deployment end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/bill-habermaas/grpc-registry/internal/config"
	"github.com/bill-habermaas/grpc-registry/internal/transport"
	"github.com/bill-habermaas/grpc-registry/proto"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: testclient <setting.toml>")
		os.Exit(2)
	}

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fail("load config", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cc, err := grpc.DialContext(ctx, cfg.ServerAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
	)
	if err != nil {
		fail("connect to "+cfg.ServerAddress, err)
	}
	defer cc.Close()

	client := transport.NewClient(cc)

	const protobufName = "testproto"
	const protobufURL = "localhost:8089"

	reg, err := client.Register(ctx, &proto.RegisterRequest{ProtobufName: protobufName, ProtobufURL: protobufURL})
	if err != nil {
		fail("register", err)
	}
	if reg.Status != nil {
		fmt.Printf("register returned status: code=%d message=%s\n", reg.Status.Code, reg.Status.ErrorMessage)
	} else {
		fmt.Printf("registered %s at %s, token=%s\n", protobufName, protobufURL, reg.Token)
	}

	unreg, err := client.Deregister(ctx, &proto.DeRegisterRequest{Token: reg.Token})
	if err != nil {
		fail("deregister", err)
	}
	fmt.Printf("deregister: %+v\n", unreg)

	report, err := client.Report(ctx, &proto.ProviderReportRequest{Token: reg.Token})
	if err != nil {
		fail("report", err)
	}
	fmt.Printf("report: %+v\n", report)
}

func fail(action string, err error) {
	fmt.Fprintf(os.Stderr, "testclient: %s: %v\n", action, err)
	os.Exit(1)
}
