// Command layerctl drives the map-layer streaming API of a running simhost.
//
// Usage:
//
//	go run ./cmd/tools/layerctl [flags] <command> [layers...]
//
// Commands:
//
//	list                 Show the defined layers and their bits
//	load <layer>...      Request an async load of the named layers
//	unload <layer>...    Request an async unload of the named layers
//	status               Show the streaming gate status
//
// Flags:
//
//	-host    Base URL of the simhost API (default: http://localhost:8080)
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/simhost/internal/httputil"
	"github.com/banshee-data/simhost/internal/layers"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: layerctl [-host URL] <list|load|unload|status> [layers...]\n")
	os.Exit(2)
}

func main() {
	host := flag.String("host", "http://localhost:8080", "Base URL of the simhost API")
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	client := httputil.NewStandardClient(nil)
	command := flag.Arg(0)

	switch command {
	case "list":
		get(client, *host+"/api/layers")

	case "load", "unload":
		names := flag.Args()[1:]
		if len(names) == 0 {
			usage()
		}
		// Validate locally so typos fail before the request goes out.
		if _, err := layers.ParseNames(names); err != nil {
			log.Fatalf("Invalid layer selection: %v", err)
		}
		body := fmt.Sprintf(`{"layers": [%s]}`, quoteAll(names))
		post(client, *host+"/api/layers/"+command, body)

	case "status":
		get(client, *host+"/api/streaming/status")

	default:
		usage()
	}
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return strings.Join(quoted, ", ")
}

func get(client httputil.HTTPClient, url string) {
	resp, err := client.Get(url)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	dump(resp.Body, resp.StatusCode)
}

func post(client httputil.HTTPClient, url, body string) {
	resp, err := client.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	dump(resp.Body, resp.StatusCode)
}

func dump(body io.ReadCloser, status int) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		log.Fatalf("Failed to read response: %v", err)
	}
	if status >= 400 {
		log.Fatalf("Server returned %d: %s", status, strings.TrimSpace(string(data)))
	}
	fmt.Println(strings.TrimSpace(string(data)))
}
