package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/docopt/docopt-go"

	"github.com/glintui/glint/inspect"
	"github.com/glintui/glint/reconcile"
)

const GlintCtlVersion = "0.0.1"

func main() {
	usage := `Glint control.

Usage:
    glintctl demo [--updates=<updates>] [--interval=<interval>]
    glintctl serve [--port=<port>] [--secret=<secret>]
        [--interval=<interval>]
    glintctl token [--secret=<secret>] [--expire=<expire>]

Options:
    -h --help                Show this screen.
    --version                Show version.
    --updates=<updates>      Demo update rounds [default: 3].
    --interval=<interval>    Seconds between updates [default: 1].
    -p --port=<port>         Listen port [default: 8100].
    --secret=<secret>        Inspect token secret. Prompted when omitted.
    --expire=<expire>        Token lifetime in hours [default: 24].`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], GlintCtlVersion)
	if err != nil {
		panic(err)
	}

	if demo_, _ := opts.Bool("demo"); demo_ {
		demo(opts)
	} else if serve_, _ := opts.Bool("serve"); serve_ {
		serve(opts)
	} else if token_, _ := opts.Bool("token"); token_ {
		token(opts)
	}
}

func demo(opts docopt.Opts) {
	updates, _ := opts.Int("--updates")
	interval, _ := opts.Int("--interval")

	app := newDemoApp()
	tree := reconcile.AttachRoot(app.build(), nil)

	fmt.Printf("initial tree:\n")
	printSnapshot(tree.Snapshot())

	for i := 0; i < updates; i += 1 {
		time.Sleep(time.Duration(interval) * time.Second)

		app.advance()
		tree.UpdateRoot(app.build())
		tree.Flush()
		tree.Finalize()

		fmt.Printf("after update %d (%d elements):\n", i+1, tree.ElementCount())
		printSnapshot(tree.Snapshot())
	}
}

func serve(opts docopt.Opts) {
	port, _ := opts.Int("--port")
	interval, _ := opts.Int("--interval")
	secret := requireSecret(opts)

	cancelCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	defer cancel()

	app := newDemoApp()
	tree := reconcile.AttachRoot(app.build(), nil)

	service := inspect.NewServiceWithDefaults(cancelCtx, tree, secret)
	defer service.Close()

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: service,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()
	defer server.Close()

	fmt.Printf("inspect listening on :%d (%d clients)\n", port, service.ClientCount())

	// the tree is owned by this goroutine. All updates happen here.
	ticker := time.NewTicker(time.Duration(interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-cancelCtx.Done():
			return
		case <-ticker.C:
			app.advance()
			tree.UpdateRoot(app.build())
			tree.Flush()
			tree.Finalize()
		}
	}
}

func token(opts docopt.Opts) {
	expire, _ := opts.Int("--expire")
	secret := requireSecret(opts)

	clientId := reconcile.NewId()
	tokenStr, err := inspect.NewToken(secret, clientId, time.Duration(expire)*time.Hour)
	if err != nil {
		panic(err)
	}

	fmt.Printf("client_id: %s\n", clientId)
	fmt.Printf("%s\n", tokenStr)
}

func requireSecret(opts docopt.Opts) []byte {
	if secretAny := opts["--secret"]; secretAny != nil {
		return []byte(secretAny.(string))
	}
	fmt.Print("Enter secret: ")
	secretBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		panic(err)
	}
	fmt.Printf("\n")
	return secretBytes
}

func printSnapshot(snapshot *reconcile.ElementSnapshot) {
	width := 80
	if w, _, err := term.GetSize(int(syscall.Stdout)); err == nil && 0 < w {
		width = w
	}
	printSnapshotLine(snapshot, 0, width)
}

func printSnapshotLine(snapshot *reconcile.ElementSnapshot, indent int, width int) {
	if snapshot == nil {
		return
	}
	line := fmt.Sprintf("%s%s", strings.Repeat("  ", indent), snapshot.Type)
	if snapshot.Key != "" {
		line += fmt.Sprintf(" key=%s", snapshot.Key)
	}
	if snapshot.Handle != "" {
		line += fmt.Sprintf(" handle=%s", snapshot.Handle)
	}
	line += fmt.Sprintf(" [%s]", snapshot.State)
	if width < len(line) {
		line = line[:width]
	}
	fmt.Println(line)
	for _, child := range snapshot.Children {
		printSnapshotLine(child, indent+1, width)
	}
}
